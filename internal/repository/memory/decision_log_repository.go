package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/repository/contract"
)

// DecisionLogRepository keeps records in process memory, ordered by creation time
type DecisionLogRepository struct {
	mu      sync.RWMutex
	records []*entity.DecisionRecord
}

func NewDecisionLogRepository() *DecisionLogRepository {
	return &DecisionLogRepository{}
}

var _ contract.DecisionLogRepository = (*DecisionLogRepository)(nil)

func (r *DecisionLogRepository) Record(ctx context.Context, record *entity.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := *record
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := sort.Search(len(r.records), func(i int) bool {
		return r.records[i].CreatedAt.After(copied.CreatedAt)
	})
	r.records = append(r.records, nil)
	copy(r.records[idx+1:], r.records[idx:])
	r.records[idx] = &copied
	return nil
}

func (r *DecisionLogRepository) FindSince(ctx context.Context, since time.Time) ([]*entity.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := sort.Search(len(r.records), func(i int) bool {
		return !r.records[i].CreatedAt.Before(since)
	})
	out := make([]*entity.DecisionRecord, 0, len(r.records)-start)
	for _, rec := range r.records[start:] {
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

func (r *DecisionLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := sort.Search(len(r.records), func(i int) bool {
		return !r.records[i].CreatedAt.Before(cutoff)
	})
	r.records = append([]*entity.DecisionRecord(nil), r.records[idx:]...)
	return int64(idx), nil
}

// Len is used by tests and the CLI
func (r *DecisionLogRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
