package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrEmptyText        = errors.New("query text is empty")
	ErrMissingUserID    = errors.New("user id is required")
	ErrMissingSessionID = errors.New("session id is required")
	ErrInvalidSessionID = errors.New("session id must be a valid UUID")
)

// Query is a single user utterance. It is never mutated after NewQuery.
type Query struct {
	Id         uuid.UUID
	Text       string
	UserId     string
	SessionId  uuid.UUID
	ReceivedAt time.Time
	WordCount  int
	Truncated  bool
}

// NewQuery validates the identifiers and applies the word ceiling exactly once
func NewQuery(text, userId, sessionId string, receivedAt time.Time) (*Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if strings.TrimSpace(userId) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(sessionId) == "" {
		return nil, ErrMissingSessionID
	}
	sid, err := uuid.Parse(strings.TrimSpace(sessionId))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}

	truncatedText, truncated := utils.TruncateWords(text, constant.MaxQueryWords)
	wordCount := utils.CountWords(truncatedText)

	return &Query{
		Id:         uuid.New(),
		Text:       truncatedText,
		UserId:     strings.TrimSpace(userId),
		SessionId:  sid,
		ReceivedAt: receivedAt,
		WordCount:  wordCount,
		Truncated:  truncated,
	}, nil
}

// IsValidationError reports whether err was produced by NewQuery input checks
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrMissingUserID) ||
		errors.Is(err, ErrMissingSessionID) ||
		errors.Is(err, ErrInvalidSessionID)
}
