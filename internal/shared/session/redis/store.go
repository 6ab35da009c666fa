// Package redis 会话存储的 Redis 实现
package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/session"
)

const keyPrefix = "session:"

// Store Redis 会话存储
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

// NewStoreFromURL 从 URL 创建 Redis 会话存储
func NewStoreFromURL(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Session] Connected to %s", opts.Addr)
	return &Store{client: client, ttl: ttl}, nil
}

// NewStoreFromClient 从现有 Redis 客户端创建会话存储（测试用）
func NewStoreFromClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// Create 写入会话并设置过期
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	key := keyPrefix + sess.Token

	data := map[string]interface{}{
		"token":             sess.Token,
		"user_id":           sess.UserID,
		"username":          sess.Username,
		"subscription_type": string(sess.SubscriptionType),
		"created_at":        sess.CreatedAt.Format(time.RFC3339),
		"expires_at":        sess.ExpiresAt.Format(time.RFC3339),
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get 读取会话；不存在（或已被 Redis 过期剔除）返回 (nil, nil)
func (s *Store) Get(ctx context.Context, token string) (*session.Session, error) {
	result, err := s.client.HGetAll(ctx, keyPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return parseSession(result), nil
}

// Delete 删除会话（登出失效）
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func parseSession(data map[string]string) *session.Session {
	sess := &session.Session{
		Token:            data["token"],
		Username:         data["username"],
		SubscriptionType: model.SubscriptionType(data["subscription_type"]),
	}

	if id, err := strconv.ParseInt(data["user_id"], 10, 64); err == nil {
		sess.UserID = id
	}
	if t, err := time.Parse(time.RFC3339, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, data["expires_at"]); err == nil {
		sess.ExpiresAt = t
	}

	return sess
}
