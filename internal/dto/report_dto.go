package dto

import "time"

type ReportSummaryResponse struct {
	Window               string         `json:"window"`
	Since                time.Time      `json:"since"`
	Total                int            `json:"total"`
	Answered             int            `json:"answered"`
	Clarification        int            `json:"clarification"`
	Unanswered           int            `json:"unanswered"`
	Dispatched           int            `json:"dispatched"`
	FallbackRate         float64        `json:"fallback_rate"`
	OverrideRate         float64        `json:"override_rate"`
	Accuracy             float64        `json:"accuracy"`
	MeanConfidence       float64        `json:"mean_confidence"`
	MeanHandlerLatencyMs float64        `json:"mean_handler_latency_ms"`
	Categories           map[string]int `json:"categories"`
}

type LiveCountersResponse struct {
	Since      time.Time        `json:"since"`
	Total      int64            `json:"total"`
	Fallbacks  int64            `json:"fallbacks"`
	Categories map[string]int64 `json:"categories"`
	Outcomes   map[string]int64 `json:"outcomes"`
}

type PruneResponse struct {
	Cutoff  time.Time `json:"cutoff"`
	Deleted int64     `json:"deleted"`
}
