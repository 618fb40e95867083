package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingHistory rows are append-only: one per applied transition, never
// updated or deleted. OldStatus is nil only for the creation entry.
type BookingHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	OldStatus *string   `gorm:"size:20" json:"old_status"`
	NewStatus string    `gorm:"size:20;not null" json:"new_status"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *BookingHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
