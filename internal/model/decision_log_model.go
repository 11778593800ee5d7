package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DecisionLog struct {
	Id                      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	QueryId                 uuid.UUID      `gorm:"type:uuid;not null;index"`
	DecisionId              uuid.UUID      `gorm:"type:uuid;not null"`
	UserId                  string         `gorm:"type:varchar(128);not null;index"`
	SessionId               string         `gorm:"type:varchar(64);not null"`
	QueryText               string         `gorm:"type:text;not null"`
	QueryTruncated          bool           `gorm:"default:false"`
	PrimaryCategory         string         `gorm:"type:varchar(40);not null;index"`
	PrimaryConfidence       float64        `gorm:"not null"`
	SecondaryCategory       *string        `gorm:"type:varchar(40)"`
	SecondaryConfidence     *float64
	Reasoning               string         `gorm:"type:text"`
	ClassificationLatencyMs int64
	FallbackTriggered       bool           `gorm:"default:false;index"`
	UserOverride            bool           `gorm:"default:false"`
	HandlerCategory         *string        `gorm:"type:varchar(40)"`
	HandlerSuccess          bool           `gorm:"default:false"`
	HandlerLatencyMs        int64
	HandlerAttempts         int
	Outcome                 string         `gorm:"type:varchar(20);not null;index"`
	Error                   *string        `gorm:"type:text"`
	Details                 datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt               time.Time      `gorm:"not null;index"`
}

func (DecisionLog) TableName() string {
	return "decision_logs"
}
