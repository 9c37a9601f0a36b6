package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceCounter holds the highest case number suffix issued for an owner in a year.
// It only ever moves forward; numbers freed by deleted cases are not reused.
type SequenceCounter struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OwnerUID  string `gorm:"not null;uniqueIndex:idx_sequence_owner_year" json:"ownerUid"`
	Year      int    `gorm:"not null;uniqueIndex:idx_sequence_owner_year" json:"year"`
	LastValue int64  `gorm:"not null;default:0" json:"lastValue"`
}

// BeforeCreate hook to generate UUID
func (s *SequenceCounter) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for SequenceCounter model
func (SequenceCounter) TableName() string {
	return "case_sequence_counters"
}
