package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/repository/contract"
)

// SessionRepository stores contexts as JSON with a server side TTL
type SessionRepository struct {
	rdb *redis.Client
	now func() time.Time
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb, now: time.Now}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func sessionKey(userId, sessionId string) string {
	return fmt.Sprintf("session:%s:%s", userId, sessionId)
}

// Save writes the context with EX set to its remaining lifetime, so every write refreshes the TTL
func (r *SessionRepository) Save(ctx context.Context, session *entity.SessionContext) error {
	ttl := session.RemainingTTL(r.now())
	key := sessionKey(session.UserId, session.SessionId)
	if ttl <= 0 {
		return r.rdb.Del(ctx, key).Err()
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, userId, sessionId string) (*entity.SessionContext, error) {
	key := sessionKey(userId, sessionId)
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}

	var session entity.SessionContext
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", key, err)
	}
	if session.IsExpired(r.now()) {
		return nil, nil
	}
	if session.Preferences == nil {
		session.Preferences = map[string]interface{}{}
	}
	return &session, nil
}

// NewClient parses a redis URL, falling back to a bare address
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}
