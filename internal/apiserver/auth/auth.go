// Package auth 用户认证：密码凭据派生、会话 Cookie 中间件
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"music-catalog/internal/shared/session"
)

// contextKey context 键类型
type contextKey string

const ctxKeySession contextKey = "session"

// Config 认证配置
type Config struct {
	// CookieName 会话 Cookie 名称
	CookieName string
	// SessionTTL 会话有效期
	SessionTTL time.Duration
	// CookieSecure 是否仅 HTTPS 下发 Cookie
	CookieSecure bool
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		CookieName: "session_token",
		SessionTTL: 24 * time.Hour,
	}
}

// ============================================================================
// 密码凭据
// ============================================================================

// HashPassword 使用 bcrypt 派生新凭据
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// LegacyPasswordDigest 旧凭据方案：单轮无盐 SHA-256 + Base64
//
// 仅为兼容既有存量哈希保留（验证和迁移用），新凭据一律走 bcrypt。
func LegacyPasswordDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword 校验密码与存储凭据
//
// bcrypt 哈希（"$2" 前缀）走 bcrypt 比较；其余按旧方案逐字节
// 恒定时间比较，保证两代凭据同时可用。
func VerifyPassword(password, hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	digest := LegacyPasswordDigest(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) == 1
}

// ============================================================================
// Context
// ============================================================================

// WithSession 将会话注入 context
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

// SessionFromContext 从 context 取出会话，未认证返回 nil
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(ctxKeySession).(*session.Session)
	return sess
}
