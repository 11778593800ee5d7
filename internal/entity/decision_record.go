package entity

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the user-visible result class of a routed query
type Outcome string

const (
	OutcomeAnswered      Outcome = "answered"
	OutcomeClarification Outcome = "clarification"
	OutcomeUnanswered    Outcome = "unanswered"
)

// DecisionRecord is one append-only decision log entry
type DecisionRecord struct {
	Id               uuid.UUID
	QueryId          uuid.UUID
	UserId           string
	SessionId        string
	QueryText        string
	QueryTruncated   bool
	Decision         RoutingDecision
	HandlerCategory  *Category // category whose handler produced the final response
	HandlerSuccess   bool
	HandlerLatencyMs int64
	HandlerAttempts  int
	Outcome          Outcome
	Error            string
	// Details holds free-form diagnostics such as the error kind or fallback reason
	Details          map[string]string
	CreatedAt        time.Time
}

// NewDecisionRecord builds a log entry for a query and its decision
func NewDecisionRecord(query *Query, decision RoutingDecision, createdAt time.Time) *DecisionRecord {
	return &DecisionRecord{
		Id:             uuid.New(),
		QueryId:        query.Id,
		UserId:         query.UserId,
		SessionId:      query.SessionId.String(),
		QueryText:      query.Text,
		QueryTruncated: query.Truncated,
		Decision:       decision,
		Details:        map[string]string{},
		CreatedAt:      createdAt,
	}
}
