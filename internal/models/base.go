package models

import (
	"time"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. IDs are auto-incremented
// integers so that ordering by id is a stable creation-order tie-break.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
