package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/repository/contract"
)

type SessionRepository struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewSessionRepository() *SessionRepository {
	// Items carry their own expiration; purge expired ones every 5 minutes
	c := cache.New(cache.NoExpiration, 5*time.Minute)
	return &SessionRepository{
		cache: c,
		now:   time.Now,
	}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func sessionKey(userId, sessionId string) string {
	return fmt.Sprintf("session:%s:%s", userId, sessionId)
}

// Save stores a copy of the context; the cache TTL is the context's remaining lifetime
func (r *SessionRepository) Save(ctx context.Context, session *entity.SessionContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl := session.RemainingTTL(r.now())
	key := sessionKey(session.UserId, session.SessionId)
	if ttl <= 0 {
		r.cache.Delete(key)
		return nil
	}
	r.cache.Set(key, session.Clone(), ttl)
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, userId, sessionId string) (*entity.SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, found := r.cache.Get(sessionKey(userId, sessionId))
	if !found {
		return nil, nil
	}
	session := x.(*entity.SessionContext)
	if session.IsExpired(r.now()) {
		return nil, nil
	}
	return session.Clone(), nil
}

func (r *SessionRepository) Delete(userId, sessionId string) {
	r.cache.Delete(sessionKey(userId, sessionId))
}
