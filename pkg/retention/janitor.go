package retention

import (
	"context"
	"time"

	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/internal/repository/contract"
)

// Janitor prunes decision log records older than the retention period
type Janitor struct {
	decisions contract.DecisionLogRepository
	maxAge    time.Duration
	interval  time.Duration
	logger    logger.ILogger
	now       func() time.Time
}

func NewJanitor(decisions contract.DecisionLogRepository, maxAge, interval time.Duration, log logger.ILogger) *Janitor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		decisions: decisions,
		maxAge:    maxAge,
		interval:  interval,
		logger:    log,
		now:       time.Now,
	}
}

// RunOnce deletes records created before now minus maxAge.
// A non-positive maxAge keeps everything.
func (j *Janitor) RunOnce(ctx context.Context) (int64, time.Time, error) {
	if j.maxAge <= 0 {
		return 0, time.Time{}, nil
	}
	cutoff := j.now().Add(-j.maxAge)
	deleted, err := j.decisions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("RETENTION", "Failed to prune decision log", map[string]interface{}{
			"cutoff": cutoff,
			"error":  err.Error(),
		})
		return 0, cutoff, err
	}
	if deleted > 0 {
		j.logger.Info("RETENTION", "Pruned decision log", map[string]interface{}{
			"cutoff":  cutoff,
			"deleted": deleted,
		})
	}
	return deleted, cutoff, nil
}

// Start prunes immediately and then on every tick until ctx is done
func (j *Janitor) Start(ctx context.Context) error {
	if j.maxAge <= 0 {
		j.logger.Info("RETENTION", "Retention disabled, decision log is kept forever", nil)
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	_, _, _ = j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _, _ = j.RunOnce(ctx)
		}
	}
}
