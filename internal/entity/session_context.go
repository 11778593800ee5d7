package entity

import (
	"time"

	"ai-query-router-be/internal/constant"
)

// ConversationMessage is one turn kept in the rolling history
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Category  *Category `json:"category,omitempty"`
}

// SessionContext is the rolling conversational state of one (user, session) pair
type SessionContext struct {
	SessionId      string                 `json:"session_id"`
	UserId         string                 `json:"user_id"`
	CreatedAt      time.Time              `json:"created_at"`
	LastActivityAt time.Time              `json:"last_activity_at"`
	ExpiresAt      time.Time              `json:"expires_at"`
	Messages       []ConversationMessage  `json:"messages"`
	DecisionIds    []string               `json:"decision_ids"`
	Preferences    map[string]interface{} `json:"preferences"`
}

// NewSessionContext creates an empty context whose expiry starts now
func NewSessionContext(userId, sessionId string, now time.Time) *SessionContext {
	return &SessionContext{
		SessionId:      sessionId,
		UserId:         userId,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(constant.SessionTTL),
		Messages:       []ConversationMessage{},
		DecisionIds:    []string{},
		Preferences:    map[string]interface{}{},
	}
}

// Touch records activity and recomputes the expiry
func (s *SessionContext) Touch(now time.Time) {
	s.LastActivityAt = now
	s.ExpiresAt = now.Add(constant.SessionTTL)
}

// IsExpired is true once more than the TTL has elapsed since the last activity
func (s *SessionContext) IsExpired(now time.Time) bool {
	return now.Sub(s.LastActivityAt) > constant.SessionTTL
}

// RemainingTTL is the time left before the context lapses, never negative
func (s *SessionContext) RemainingTTL(now time.Time) time.Duration {
	remaining := s.LastActivityAt.Add(constant.SessionTTL).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AppendMessage adds a turn and evicts the oldest turns past the history cap
func (s *SessionContext) AppendMessage(role, content string, category *Category, at time.Time) {
	msg := ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
	if category != nil {
		c := *category
		msg.Category = &c
	}
	s.Messages = append(s.Messages, msg)
	if overflow := len(s.Messages) - constant.MaxSessionHistory; overflow > 0 {
		s.Messages = append([]ConversationMessage(nil), s.Messages[overflow:]...)
	}
}

// AppendDecision records a routing decision id with the same cap as messages
func (s *SessionContext) AppendDecision(decisionId string) {
	s.DecisionIds = append(s.DecisionIds, decisionId)
	if overflow := len(s.DecisionIds) - constant.MaxSessionHistory; overflow > 0 {
		s.DecisionIds = append([]string(nil), s.DecisionIds[overflow:]...)
	}
}

// LastCategory returns the category of the most recent categorized turn
func (s *SessionContext) LastCategory() *Category {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Category != nil {
			c := *s.Messages[i].Category
			return &c
		}
	}
	return nil
}

// RecentMessages returns up to n of the newest turns, oldest first
func (s *SessionContext) RecentMessages(n int) []ConversationMessage {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	start := len(s.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]ConversationMessage, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}

// Clone returns a deep copy so cached contexts are never shared between requests
func (s *SessionContext) Clone() *SessionContext {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Messages = make([]ConversationMessage, len(s.Messages))
	for i, m := range s.Messages {
		clone.Messages[i] = m
		if m.Category != nil {
			c := *m.Category
			clone.Messages[i].Category = &c
		}
	}
	clone.DecisionIds = append([]string{}, s.DecisionIds...)
	clone.Preferences = make(map[string]interface{}, len(s.Preferences))
	for k, v := range s.Preferences {
		clone.Preferences[k] = v
	}
	return &clone
}
