package member

import (
	"context"
	"errors"
	"time"
)

// ErrMemberNotFound 会员不存在
var ErrMemberNotFound = errors.New("member: not found")

// Member 会员，由 LINE 身份首次登录时创建
type Member struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LineUserID      string    `gorm:"uniqueIndex;type:varchar(64);not null" json:"-"`
	LineDisplayName *string   `gorm:"type:varchar(255)" json:"lineDisplayName"`
	LinePictureURL  *string   `gorm:"type:varchar(1024)" json:"linePictureUrl"`
	Email           *string   `gorm:"type:varchar(255)" json:"email"`
	HomeBranchID    *string   `gorm:"type:varchar(36)" json:"homeBranchId"`
	IsAdmin         bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// LineProfile LINE 登录提供的资料，空字段表示未提供
type LineProfile struct {
	LineUserID  string
	DisplayName string
	PictureURL  string
	Email       string
}

// Repository 会员查询
type Repository interface {
	// FindOrCreateFromLineProfile 按 LINE 用户查找会员，不存在则创建；
	// 已存在时只覆盖 profile 中提供的字段
	FindOrCreateFromLineProfile(ctx context.Context, p LineProfile) (*Member, error)
	FindByID(ctx context.Context, id string) (*Member, error)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
