package session

import "context"

// Store 会话存储。返回的会话均为快照，修改它不会影响存储内的记录
type Store interface {
	// Create 分配新令牌并写入会话
	Create(ctx context.Context, in CreateInput) (*Session, error)
	// Validate 查找会话，过期记录在访问时被清除；role 为空表示不限定角色
	Validate(ctx context.Context, token string, role Role) (*Session, error)
	// Touch 与 Validate 相同，成功时以原 TTL 续期
	Touch(ctx context.Context, token string, role Role) (*Session, error)
	// Delete 删除会话，不存在时不报错
	Delete(ctx context.Context, token string) error
	// Len 当前记录数，可能包含尚未清除的过期记录
	Len(ctx context.Context) (int, error)
	// Sweep 清除所有过期记录，返回清除数量
	Sweep(ctx context.Context) (int, error)
}
