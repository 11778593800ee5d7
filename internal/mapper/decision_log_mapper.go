package mapper

import (
	"encoding/json"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/model"

	"gorm.io/datatypes"
)

type DecisionLogMapper struct{}

func NewDecisionLogMapper() *DecisionLogMapper {
	return &DecisionLogMapper{}
}

func (m *DecisionLogMapper) ToModel(e *entity.DecisionRecord) *model.DecisionLog {
	if e == nil {
		return nil
	}

	d := e.Decision
	out := &model.DecisionLog{
		Id:                      e.Id,
		QueryId:                 e.QueryId,
		DecisionId:              d.Id,
		UserId:                  e.UserId,
		SessionId:               e.SessionId,
		QueryText:               e.QueryText,
		QueryTruncated:          e.QueryTruncated,
		PrimaryCategory:         string(d.PrimaryCategory),
		PrimaryConfidence:       d.PrimaryConfidence,
		SecondaryConfidence:     d.SecondaryConfidence,
		Reasoning:               d.Reasoning,
		ClassificationLatencyMs: d.ClassificationLatencyMs,
		FallbackTriggered:       d.FallbackTriggered,
		UserOverride:            d.UserOverride,
		HandlerSuccess:          e.HandlerSuccess,
		HandlerLatencyMs:        e.HandlerLatencyMs,
		HandlerAttempts:         e.HandlerAttempts,
		Outcome:                 string(e.Outcome),
		CreatedAt:               e.CreatedAt,
	}
	if d.SecondaryCategory != nil {
		s := string(*d.SecondaryCategory)
		out.SecondaryCategory = &s
	}
	if e.HandlerCategory != nil {
		h := string(*e.HandlerCategory)
		out.HandlerCategory = &h
	}
	if e.Error != "" {
		msg := e.Error
		out.Error = &msg
	}
	if len(e.Details) > 0 {
		if raw, err := json.Marshal(e.Details); err == nil {
			out.Details = datatypes.JSON(raw)
		}
	}
	return out
}

func (m *DecisionLogMapper) ToEntity(e *model.DecisionLog) *entity.DecisionRecord {
	if e == nil {
		return nil
	}

	decision := entity.RoutingDecision{
		Id:                      e.DecisionId,
		QueryId:                 e.QueryId,
		PrimaryCategory:         entity.Category(e.PrimaryCategory),
		PrimaryConfidence:       e.PrimaryConfidence,
		SecondaryConfidence:     e.SecondaryConfidence,
		Reasoning:               e.Reasoning,
		ClassificationLatencyMs: e.ClassificationLatencyMs,
		FallbackTriggered:       e.FallbackTriggered,
		UserOverride:            e.UserOverride,
		CreatedAt:               e.CreatedAt,
	}
	if e.SecondaryCategory != nil {
		c := entity.Category(*e.SecondaryCategory)
		decision.SecondaryCategory = &c
	}

	out := &entity.DecisionRecord{
		Id:               e.Id,
		QueryId:          e.QueryId,
		UserId:           e.UserId,
		SessionId:        e.SessionId,
		QueryText:        e.QueryText,
		QueryTruncated:   e.QueryTruncated,
		Decision:         decision,
		HandlerSuccess:   e.HandlerSuccess,
		HandlerLatencyMs: e.HandlerLatencyMs,
		HandlerAttempts:  e.HandlerAttempts,
		Outcome:          entity.Outcome(e.Outcome),
		Details:          map[string]string{},
		CreatedAt:        e.CreatedAt,
	}
	if e.HandlerCategory != nil {
		c := entity.Category(*e.HandlerCategory)
		out.HandlerCategory = &c
	}
	if e.Error != nil {
		out.Error = *e.Error
	}
	if len(e.Details) > 0 {
		_ = json.Unmarshal(e.Details, &out.Details)
	}
	return out
}
