package dto

type HandlerStatusResponse struct {
	Category       string `json:"category"`
	Priority       int    `json:"priority"`
	Implementation string `json:"implementation"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutMs      int64  `json:"timeout_ms"`
	RetryCount     int    `json:"retry_count"`
	Instantiated   bool   `json:"instantiated"`
	Enabled        bool   `json:"enabled"`
	Available      bool   `json:"available"`
	Error          string `json:"error,omitempty"`
}
