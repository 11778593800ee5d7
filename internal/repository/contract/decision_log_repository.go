package contract

import (
	"context"
	"time"

	"ai-query-router-be/internal/entity"
)

// DecisionLogRepository is append-only; records are only removed by retention
type DecisionLogRepository interface {
	Record(ctx context.Context, record *entity.DecisionRecord) error
	FindSince(ctx context.Context, since time.Time) ([]*entity.DecisionRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
