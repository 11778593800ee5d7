package entity

import (
	"time"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/pkg/utils"

	"github.com/google/uuid"
)

// RoutingDecision is the classifier output for one query.
// Treat it as a value: the With* methods return modified copies.
type RoutingDecision struct {
	Id                      uuid.UUID
	QueryId                 uuid.UUID
	PrimaryCategory         Category
	PrimaryConfidence       float64
	SecondaryCategory       *Category
	SecondaryConfidence     *float64
	Reasoning               string
	ClassificationLatencyMs int64
	FallbackTriggered       bool
	UserOverride            bool
	CreatedAt               time.Time
}

// DecisionInput holds the raw classifier answer before clamping and secondary filtering
type DecisionInput struct {
	QueryId                 uuid.UUID
	PrimaryCategory         Category
	PrimaryConfidence       float64
	SecondaryCategory       *Category
	SecondaryConfidence     *float64
	Reasoning               string
	ClassificationLatencyMs int64
	UserOverride            bool
	CreatedAt               time.Time
}

// NewRoutingDecision clamps confidences to [0,1], drops a secondary category that
// is not strictly below the primary or is under the secondary floor, and truncates reasoning.
func NewRoutingDecision(in DecisionInput) RoutingDecision {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	d := RoutingDecision{
		Id:                      uuid.New(),
		QueryId:                 in.QueryId,
		PrimaryCategory:         in.PrimaryCategory,
		PrimaryConfidence:       ClampConfidence(in.PrimaryConfidence),
		Reasoning:               utils.TruncateRunes(in.Reasoning, constant.MaxReasoningLength),
		ClassificationLatencyMs: in.ClassificationLatencyMs,
		UserOverride:            in.UserOverride,
		CreatedAt:               createdAt,
	}

	if in.SecondaryCategory != nil && in.SecondaryConfidence != nil && *in.SecondaryCategory != in.PrimaryCategory {
		secondary := ClampConfidence(*in.SecondaryConfidence)
		if secondary >= constant.SecondaryConfidenceFloor && secondary < d.PrimaryConfidence {
			category := *in.SecondaryCategory
			d.SecondaryCategory = &category
			d.SecondaryConfidence = &secondary
		}
	}

	return d
}

// WithFallbackTriggered returns a copy with the fallback flag set
func (d RoutingDecision) WithFallbackTriggered() RoutingDecision {
	d.FallbackTriggered = true
	return d
}

// HasSecondary reports whether a runner-up category survived filtering
func (d RoutingDecision) HasSecondary() bool {
	return d.SecondaryCategory != nil && d.SecondaryConfidence != nil
}

// ClampConfidence maps any score into [0,1], NaN becomes 0
func ClampConfidence(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
