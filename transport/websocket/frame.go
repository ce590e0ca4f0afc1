package websocket

import (
	"encoding/json"

	"github.com/kochabx/yogaclub/core/session"
)

const (
	FrameSessionUpdate  = "session:update"
	FrameSessionExpired = "session:expired"
	FrameHeartbeat      = "heartbeat"
)

const (
	// CloseSessionExpired 会话过期时服务端关闭连接的状态码
	CloseSessionExpired = 4401
	closeExpiredReason  = "Session expired"
)

// Frame 服务端推送的帧
type Frame struct {
	Type    string              `json:"type"`
	Session *session.Serialized `json:"session,omitempty"`
}

func updateFrame(s *session.Session) Frame {
	out := session.Serialize(s)
	return Frame{Type: FrameSessionUpdate, Session: &out}
}

func expiredFrame() Frame {
	return Frame{Type: FrameSessionExpired}
}

// isHeartbeat 无法解析的帧一律不是心跳
func isHeartbeat(data []byte) bool {
	var in struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return false
	}
	return in.Type == FrameHeartbeat
}
