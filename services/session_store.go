package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"karma_server/structs"
)

// SessionStore keeps per-user checkout sessions keyed by chat user id.
// Get returns nil without error when the user has no session.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*structs.Session, error)
	Save(ctx context.Context, session *structs.Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemorySessionStore is a process-local store used when Redis is disabled
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]structs.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]structs.Session)}
}

func (ms *MemorySessionStore) Get(_ context.Context, userID int64) (*structs.Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	session, ok := ms.sessions[userID]
	if !ok {
		return nil, nil
	}
	// copy the item slice so callers can't mutate stored state
	session.Items = append(session.Items[:0:0], session.Items...)
	return &session, nil
}

func (ms *MemorySessionStore) Save(_ context.Context, session *structs.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *session
	stored.Items = append(session.Items[:0:0], session.Items...)
	stored.UpdatedAt = time.Now()
	ms.sessions[session.UserID] = stored
	return nil
}

func (ms *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.sessions, userID)
	return nil
}

// RedisSessionStore keeps sessions as JSON documents that expire after ttl of inactivity
type RedisSessionStore struct {
	cache *CacheService
	ttl   time.Duration
}

func NewRedisSessionStore(cache *CacheService, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{cache: cache, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (rs *RedisSessionStore) Get(ctx context.Context, userID int64) (*structs.Session, error) {
	session, err := getJSON[structs.Session](ctx, rs.cache, sessionKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (rs *RedisSessionStore) Save(ctx context.Context, session *structs.Session) error {
	session.UpdatedAt = time.Now()
	if err := setJSON(ctx, rs.cache, sessionKey(session.UserID), session, rs.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (rs *RedisSessionStore) Delete(ctx context.Context, userID int64) error {
	return rs.cache.Delete(ctx, sessionKey(userID))
}
