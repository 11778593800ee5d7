package session

import (
	"context"
	"time"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/internal/repository/contract"
	"ai-query-router-be/pkg/llm"
)

// Manager handles session operations on top of the cache collaborator
type Manager struct {
	sessionRepo contract.SessionRepository
	logger      logger.ILogger
}

// NewManager creates a new session manager
func NewManager(sessionRepo contract.SessionRepository, log logger.ILogger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{sessionRepo: sessionRepo, logger: log}
}

// LoadOrCreate retrieves the session or starts an empty one in memory.
// A cache failure is logged and treated as a miss.
func (m *Manager) LoadOrCreate(ctx context.Context, userId, sessionId string, now time.Time) *entity.SessionContext {
	session, err := m.sessionRepo.Load(ctx, userId, sessionId)
	if err != nil {
		m.logger.Warn("Session", "Session load failed, starting fresh", map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
			"error":      err.Error(),
		})
		session = nil
	}
	if session == nil || session.IsExpired(now) {
		return entity.NewSessionContext(userId, sessionId, now)
	}
	return session
}

// Save persists session state; failures are logged, never returned to the caller
func (m *Manager) Save(ctx context.Context, session *entity.SessionContext) bool {
	if err := m.sessionRepo.Save(ctx, session); err != nil {
		m.logger.Error("Session", "Session save failed", map[string]interface{}{
			"user_id":    session.UserId,
			"session_id": session.SessionId,
			"error":      err.Error(),
		})
		return false
	}
	return true
}

// History converts the newest turns into LLM messages, oldest first
func History(session *entity.SessionContext, limit int) []llm.Message {
	recent := session.RecentMessages(limit)
	out := make([]llm.Message, 0, len(recent))
	for _, msg := range recent {
		role := msg.Role
		if role != constant.ChatMessageRoleAssistant && role != constant.ChatMessageRoleSystem {
			role = constant.ChatMessageRoleUser
		}
		out = append(out, llm.Message{Role: role, Content: msg.Content})
	}
	return out
}
