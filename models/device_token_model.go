package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceToken registers one push-capable endpoint for a user. Registration is
// an upsert keyed by user + token; unregistration soft-deactivates.
type DeviceToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token      string    `gorm:"size:255;not null;unique" json:"token"`
	Platform   string    `gorm:"size:20;not null" json:"platform"`
	DeviceName *string   `gorm:"size:255" json:"device_name,omitempty"`
	OSVersion  *string   `gorm:"size:100" json:"os_version,omitempty"`
	AppVersion *string   `gorm:"size:50" json:"app_version,omitempty"`
	Active     bool      `gorm:"default:true;index" json:"active"`
	LastUsed   time.Time `gorm:"index" json:"last_used"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (t *DeviceToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
