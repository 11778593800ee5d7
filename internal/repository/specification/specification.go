package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// Specification narrows or orders a GORM query
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// OrderBy sorts on one column
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}
