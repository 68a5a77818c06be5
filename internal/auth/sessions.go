package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/auth/domain"
)

// SessionStore keeps server-side admin sessions keyed by an opaque id.
// Get returns ErrNotFound for unknown or expired ids.
type SessionStore interface {
	Create(ctx context.Context, username string, method domain.Method) (string, domain.Identity, error)
	Get(ctx context.Context, id string) (domain.Identity, error)
	Delete(ctx context.Context, id string) error
}

func newIdentity(username string, method domain.Method, now time.Time, ttl time.Duration) domain.Identity {
	return domain.Identity{
		Username:        username,
		Method:          method,
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(ttl),
	}
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]domain.Identity
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]domain.Identity),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Create(_ context.Context, username string, method domain.Method) (string, domain.Identity, error) {
	id := uuid.NewString()
	ident := newIdentity(username, method, m.now().UTC(), m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.sessions[id] = ident
	return id, ident, nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.sessions[id]
	if !ok {
		return domain.Identity{}, apperrors.ErrNotFound
	}
	if ident.Expired(m.now()) {
		delete(m.sessions, id)
		return domain.Identity{}, apperrors.ErrNotFound
	}
	return ident, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// sweep drops expired sessions. Caller holds mu.
func (m *MemorySessionStore) sweep() {
	now := m.now()
	for id, ident := range m.sessions {
		if ident.Expired(now) {
			delete(m.sessions, id)
		}
	}
}

const (
	sessionKeyPrefix = "govfunds:session:" // govfunds:session:{id} -> identity JSON
	userSessionsKey  = "govfunds:user:"    // govfunds:user:{username} -> set of session ids
)

// RedisSessionStore keeps sessions in Redis so they survive restarts and
// are shared between instances.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *RedisSessionStore) userKey(username string) string { return userSessionsKey + username }

func (r *RedisSessionStore) Create(ctx context.Context, username string, method domain.Method) (string, domain.Identity, error) {
	id := uuid.NewString()
	ident := newIdentity(username, method, time.Now().UTC(), r.ttl)

	data, err := json.Marshal(ident)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(id), data, r.ttl)
	pipe.SAdd(ctx, r.userKey(username), id)
	pipe.Expire(ctx, r.userKey(username), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", domain.Identity{}, fmt.Errorf("failed to create session: %w", err)
	}
	return id, ident, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (domain.Identity, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Identity{}, apperrors.ErrNotFound
		}
		return domain.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}

	var ident domain.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if ident.Expired(time.Now()) {
		return domain.Identity{}, apperrors.ErrNotFound
	}
	return ident, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	ident, err := r.Get(ctx, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(id))
	if ident.Username != "" {
		pipe.SRem(ctx, r.userKey(ident.Username), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUser revokes every session of username.
func (r *RedisSessionStore) DeleteUser(ctx context.Context, username string) (int, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, r.sessionKey(id))
	}
	pipe.Del(ctx, r.userKey(username))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return len(ids), nil
}
