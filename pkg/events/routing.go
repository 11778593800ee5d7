package events

import (
	"encoding/json"
	"fmt"
	"time"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
)

// RoutingDecided is the typed view of a ROUTING_DECIDED payload
type RoutingDecided struct {
	QueryId           string    `json:"query_id"`
	DecisionId        string    `json:"decision_id"`
	UserId            string    `json:"user_id"`
	SessionId         string    `json:"session_id"`
	PrimaryCategory   string    `json:"primary_category"`
	Confidence        float64   `json:"confidence"`
	HandlerCategory   string    `json:"handler_category,omitempty"`
	FallbackTriggered bool      `json:"fallback_triggered"`
	UserOverride      bool      `json:"user_override"`
	HandlerSuccess    bool      `json:"handler_success"`
	HandlerLatencyMs  int64     `json:"handler_latency_ms"`
	Outcome           string    `json:"outcome"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewRoutingDecidedEvent summarises a decision log record; query text is never included
func NewRoutingDecidedEvent(record *entity.DecisionRecord) BaseEvent {
	data := map[string]interface{}{
		"query_id":           record.QueryId.String(),
		"decision_id":        record.Decision.Id.String(),
		"user_id":            record.UserId,
		"session_id":         record.SessionId,
		"primary_category":   string(record.Decision.PrimaryCategory),
		"confidence":         record.Decision.PrimaryConfidence,
		"fallback_triggered": record.Decision.FallbackTriggered,
		"user_override":      record.Decision.UserOverride,
		"handler_success":    record.HandlerSuccess,
		"handler_latency_ms": record.HandlerLatencyMs,
		"outcome":            string(record.Outcome),
		"created_at":         record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if record.HandlerCategory != nil {
		data["handler_category"] = string(*record.HandlerCategory)
	}
	return BaseEvent{
		Type:       constant.EventTypeRoutingDecided,
		Data:       data,
		OccurredAt: record.CreatedAt,
	}
}

// DecodeRoutingDecided parses a ROUTING_DECIDED payload from the wire
func DecodeRoutingDecided(raw []byte) (RoutingDecided, error) {
	var out RoutingDecided
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode routing event: %w", err)
	}
	if out.PrimaryCategory == "" {
		return out, fmt.Errorf("routing event without category")
	}
	return out, nil
}

// AsRoutingDecided converts a generic event back to the typed payload
func AsRoutingDecided(event Event) (RoutingDecided, error) {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return RoutingDecided{}, err
	}
	return DecodeRoutingDecided(raw)
}
