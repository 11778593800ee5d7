package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/utils"
)

var ErrEmptyText = errors.New("classifier: query text is empty")

// Input is everything a strategy may look at
type Input struct {
	Text    string
	QueryID uuid.UUID
	// PreviousCategory is the category routed last in the same session, if any
	PreviousCategory *entity.Category
}

// Classifier turns query text into a routing decision.
// Only empty text is an error; provider failures degrade to a low-priority decision.
type Classifier interface {
	Classify(ctx context.Context, in Input) (entity.RoutingDecision, error)
	Name() string
}

const (
	StrategySimilarity = "similarity"
	StrategyGenerative = "generative"
)

// BuildReasoning produces the human readable explanation attached to every decision.
// It always names the category and the confidence as a percentage with one decimal,
// so a score just under the threshold never prints the same as the threshold.
func BuildReasoning(category entity.Category, confidence, threshold float64, detail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classified as %s with %.1f%% confidence", category, entity.ClampConfidence(confidence)*100)
	if detail = strings.TrimSpace(detail); detail != "" {
		b.WriteString(" (")
		b.WriteString(utils.TruncateRunes(detail, 300))
		b.WriteString(")")
	}
	b.WriteString(".")
	if confidence < threshold {
		fmt.Fprintf(&b, " Below the %.1f%% threshold, requesting clarification.", threshold*100)
	}
	return b.String()
}

// fallbackDecision is the answer of any strategy whose backend failed
func fallbackDecision(in Input, threshold float64, started time.Time, cause error) entity.RoutingDecision {
	return entity.NewRoutingDecision(entity.DecisionInput{
		QueryId:                 in.QueryID,
		PrimaryCategory:         entity.CategoryGeneralChat,
		PrimaryConfidence:       constant.FallbackConfidence,
		Reasoning:               BuildReasoning(entity.CategoryGeneralChat, constant.FallbackConfidence, threshold, "classification failed: "+cause.Error()),
		ClassificationLatencyMs: time.Since(started).Milliseconds(),
		CreatedAt:               time.Now(),
	})
}

func resolveThreshold(threshold float64) float64 {
	if threshold <= 0 || threshold > 1 {
		return constant.DefaultConfidenceThreshold
	}
	return threshold
}
