package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	SkillID    uuid.UUID `gorm:"type:uuid;not null" json:"skill_id"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	// Snapshotted from the skill catalog at creation time, never re-read.
	TotalHours   float64 `gorm:"type:numeric(10,2);not null" json:"total_hours"`
	PricePerHour float64 `gorm:"type:numeric(10,2);not null" json:"price_per_hour"`
	TotalPrice   float64 `gorm:"type:numeric(10,2);not null" json:"total_price"`

	Status string `gorm:"size:20;not null;default:'PENDING'" json:"status"`

	// Checked on every status write; a stale version means a concurrent
	// transition won the race.
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// IsTerminalStatus reports whether a booking status has no outgoing transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusRejected || status == StatusCancelled || status == StatusCompleted
}
