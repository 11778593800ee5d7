package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/internal/entity"
)

func TestDecisionLogMapperKeepsOptionalFields(t *testing.T) {
	secondary := entity.CategoryProblemSolving
	secondaryScore := 0.55
	handled := entity.CategoryGeneralChat
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	decision := entity.NewRoutingDecision(entity.DecisionInput{
		QueryId:             uuid.New(),
		PrimaryCategory:     entity.CategoryAutomation,
		PrimaryConfidence:   0.82,
		SecondaryCategory:   &secondary,
		SecondaryConfidence: &secondaryScore,
		Reasoning:           "Classified as AUTOMATION with 82% confidence.",
		CreatedAt:           created,
	}).WithFallbackTriggered()

	record := &entity.DecisionRecord{
		Id:              uuid.New(),
		QueryId:         decision.QueryId,
		UserId:          "u1",
		SessionId:       uuid.NewString(),
		QueryText:       "schedule the backup",
		Decision:        decision,
		HandlerCategory: &handled,
		HandlerSuccess:  true,
		HandlerAttempts: 3,
		Outcome:         entity.OutcomeAnswered,
		Error:           "AUTOMATION: handler timed out",
		Details:         map[string]string{"error_kind": "handler_failure"},
		CreatedAt:       created,
	}

	m := NewDecisionLogMapper()
	row := m.ToModel(record)
	assert.Equal(t, "AUTOMATION", row.PrimaryCategory)
	require.NotNil(t, row.SecondaryCategory)
	assert.Equal(t, "PROBLEM_SOLVING", *row.SecondaryCategory)
	assert.True(t, row.FallbackTriggered)
	assert.JSONEq(t, `{"error_kind":"handler_failure"}`, string(row.Details))

	back := m.ToEntity(row)
	assert.Equal(t, record.Decision.Id, back.Decision.Id)
	assert.Equal(t, entity.CategoryProblemSolving, *back.Decision.SecondaryCategory)
	assert.Equal(t, handled, *back.HandlerCategory)
	assert.Equal(t, record.Error, back.Error)
	assert.Equal(t, "handler_failure", back.Details["error_kind"])
	assert.Equal(t, 3, back.HandlerAttempts)
}

func TestDecisionLogMapperEmptyOptionals(t *testing.T) {
	m := NewDecisionLogMapper()
	row := m.ToModel(&entity.DecisionRecord{
		Decision: entity.RoutingDecision{PrimaryCategory: entity.CategoryGeneralChat},
		Outcome:  entity.OutcomeClarification,
	})
	assert.Nil(t, row.SecondaryCategory)
	assert.Nil(t, row.HandlerCategory)
	assert.Nil(t, row.Error)
	assert.Nil(t, row.Details)

	back := m.ToEntity(row)
	assert.False(t, back.Decision.HasSecondary())
	assert.Empty(t, back.Error)
	assert.NotNil(t, back.Details)
}
