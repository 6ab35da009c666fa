package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内会话存储
//
// 用于测试和未配置 Redis 的开发场景。过期会话在读取时惰性剔除。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建进程内会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
