package dto

import "time"

type RouteRequest struct {
	Text      string `json:"text" validate:"required,max=20000"`
	UserId    string `json:"user_id" validate:"required,max=128"`
	SessionId string `json:"session_id" validate:"required,uuid"`
	Role      string `json:"role,omitempty" validate:"max=64"`
}

type RoutingDecisionDTO struct {
	Id                      string   `json:"id"`
	PrimaryCategory         string   `json:"primary_category"`
	PrimaryConfidence       float64  `json:"primary_confidence"`
	SecondaryCategory       *string  `json:"secondary_category,omitempty"`
	SecondaryConfidence     *float64 `json:"secondary_confidence,omitempty"`
	Reasoning               string   `json:"reasoning"`
	ClassificationLatencyMs int64    `json:"classification_latency_ms"`
	FallbackTriggered       bool     `json:"fallback_triggered"`
	UserOverride            bool     `json:"user_override"`
}

type HandlerResponseDTO struct {
	Success   bool              `json:"success"`
	Text      string            `json:"text,omitempty"`
	Sources   []string          `json:"sources,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Error     string            `json:"error,omitempty"`
	HandledBy string            `json:"handled_by,omitempty"`
}

type RouteResponse struct {
	Success       bool                `json:"success"`
	Outcome       string              `json:"outcome"`
	QueryId       string              `json:"query_id,omitempty"`
	Truncated     bool                `json:"truncated"`
	WordCount     int                 `json:"word_count"`
	ReceivedAt    time.Time           `json:"received_at"`
	Decision      *RoutingDecisionDTO `json:"decision,omitempty"`
	Response      *HandlerResponseDTO `json:"response,omitempty"`
	Reply         string              `json:"reply"`
	Clarification string              `json:"clarification,omitempty"`
	Error         string              `json:"error,omitempty"`
	LatencyMs     int64               `json:"latency_ms"`
}
