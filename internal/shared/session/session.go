// Package session 服务端会话存储抽象
//
// 会话以不透明令牌为键，状态存在服务端（Redis 或进程内存），
// 与任何具体 Web 框架解耦。契约：
//   - Create 写入一条带 TTL 的会话记录
//   - Get 返回会话；不存在或已过期返回 (nil, nil)
//   - Delete 使会话立即失效（登出）
//
// 同一会话的并发请求之间不做同步，写入为 last-write-wins。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"music-catalog/internal/shared/model"
)

// Session 会话状态记录
type Session struct {
	Token            string                 `json:"token"`
	UserID           int64                  `json:"user_id"`
	Username         string                 `json:"username"`
	SubscriptionType model.SubscriptionType `json:"subscription_type"`
	CreatedAt        time.Time              `json:"created_at"`
	ExpiresAt        time.Time              `json:"expires_at"`
}

// Store 会话存储接口
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

// NewToken 生成 128 位不透明会话令牌（32 个十六进制字符）
func NewToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
