package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RevocationStore interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// RedisRevocationStore 让多个 API 实例共享注销状态
type RedisRevocationStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisRevocationStore(client *redis.Client, timeout time.Duration) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, timeout: timeout}
}

func revokedKey(id string) string {
	return "session_revoked_" + id
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Set(ctx, revokedKey(id), 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocationStore 在没有配置 redis 时使用，只对单个进程有效
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[id] = now.Add(ttl)

	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, id)
		return false, nil
	}
	return true, nil
}
