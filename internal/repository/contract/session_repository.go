package contract

import (
	"context"

	"ai-query-router-be/internal/entity"
)

// SessionRepository is the TTL cache of conversation contexts.
// Load returns (nil, nil) when the context is absent or has expired.
type SessionRepository interface {
	Save(ctx context.Context, session *entity.SessionContext) error
	Load(ctx context.Context, userId, sessionId string) (*entity.SessionContext, error)
}
