package specification

import (
	"time"

	"ai-query-router-be/internal/entity"

	"gorm.io/gorm"
)

// CreatedSince keeps records created at or after the given instant
type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}

// CreatedBefore keeps records created strictly before the cutoff
type CreatedBefore struct {
	Cutoff time.Time
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", s.Cutoff)
}

// ExampleKey selects one cached example vector
type ExampleKey struct {
	Model    string
	Category entity.Category
	Phrase   string
}

func (s ExampleKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("model = ? AND category = ? AND phrase = ?", s.Model, string(s.Category), s.Phrase)
}
