package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/repository/memory"
)

type recordSpec struct {
	age        time.Duration
	category   entity.Category
	confidence float64
	handledBy  *entity.Category
	success    bool
	fallback   bool
	override   bool
	latencyMs  int64
	outcome    entity.Outcome
}

func seed(t *testing.T, now time.Time, specs ...recordSpec) *memory.DecisionLogRepository {
	t.Helper()
	repo := memory.NewDecisionLogRepository()
	for _, s := range specs {
		decision := entity.NewRoutingDecision(entity.DecisionInput{
			PrimaryCategory:   s.category,
			PrimaryConfidence: s.confidence,
			UserOverride:      s.override,
			CreatedAt:         now.Add(-s.age),
		})
		if s.fallback {
			decision = decision.WithFallbackTriggered()
		}
		require.NoError(t, repo.Record(context.Background(), &entity.DecisionRecord{
			Id:               uuid.New(),
			QueryId:          uuid.New(),
			Decision:         decision,
			HandlerCategory:  s.handledBy,
			HandlerSuccess:   s.success,
			HandlerLatencyMs: s.latencyMs,
			Outcome:          s.outcome,
			CreatedAt:        now.Add(-s.age),
		}))
	}
	return repo
}

func cat(c entity.Category) *entity.Category { return &c }

func TestReportSummary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := seed(t, now,
		recordSpec{age: time.Minute, category: entity.CategoryGeneralChat, confidence: 0.9,
			handledBy: cat(entity.CategoryGeneralChat), success: true, latencyMs: 100, outcome: entity.OutcomeAnswered},
		recordSpec{age: 2 * time.Minute, category: entity.CategoryProblemSolving, confidence: 0.8,
			handledBy: cat(entity.CategoryGeneralChat), success: true, fallback: true, latencyMs: 300, outcome: entity.OutcomeAnswered},
		recordSpec{age: 3 * time.Minute, category: entity.CategoryAutomation, confidence: 0.5,
			outcome: entity.OutcomeClarification},
		recordSpec{age: 4 * time.Minute, category: entity.CategoryGeneralChat, confidence: 1,
			handledBy: cat(entity.CategoryGeneralChat), success: true, override: true, latencyMs: 200, outcome: entity.OutcomeAnswered},
		// outside the window
		recordSpec{age: 48 * time.Hour, category: entity.CategoryReportGeneration, confidence: 0.9,
			handledBy: cat(entity.CategoryReportGeneration), outcome: entity.OutcomeUnanswered},
	)

	svc := &reportService{decisions: repo, now: func() time.Time { return now }}
	summary, err := svc.Summary(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "24h0m0s", summary.Window)
	assert.Equal(t, now.Add(-24*time.Hour), summary.Since)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Answered)
	assert.Equal(t, 1, summary.Clarification)
	assert.Zero(t, summary.Unanswered)
	assert.Equal(t, 3, summary.Dispatched)
	assert.InDelta(t, 1.0/3.0, summary.FallbackRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, summary.Accuracy, 1e-9)
	assert.InDelta(t, 0.25, summary.OverrideRate, 1e-9)
	assert.InDelta(t, 0.8, summary.MeanConfidence, 1e-9)
	assert.InDelta(t, 200, summary.MeanHandlerLatencyMs, 1e-9)
	assert.Equal(t, map[string]int{
		string(entity.CategoryGeneralChat):    2,
		string(entity.CategoryProblemSolving): 1,
		string(entity.CategoryAutomation):     1,
	}, summary.Categories)
}

func TestReportSummaryEmptyWindow(t *testing.T) {
	now := time.Now()
	svc := &reportService{decisions: memory.NewDecisionLogRepository(), now: func() time.Time { return now }}

	summary, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultReportWindow.String(), summary.Window)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Accuracy)
	assert.Zero(t, summary.MeanConfidence)
	assert.NotNil(t, summary.Categories)
}

func TestReportSummaryRepositoryError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReportService(memory.NewDecisionLogRepository()).Summary(ctx, time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
