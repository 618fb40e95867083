package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationSent   = "SENT"
	NotificationFailed = "FAILED"
)

const (
	ChannelEmail  = "EMAIL"
	ChannelSocket = "SOCKET"
	ChannelPush   = "PUSH"
)

// NotificationLog is the persisted outcome of one dispatch attempt on one
// channel. A resend writes a new row; rows are never updated.
type NotificationLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Address   string    `gorm:"size:255" json:"address"`
	Channel   string    `gorm:"size:20;not null;index" json:"channel"`
	Category  string    `gorm:"size:30;not null" json:"category"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Content   string    `gorm:"type:text" json:"content"`
	Status    string    `gorm:"size:20;not null;index" json:"status"`
	ErrorMsg  *string   `gorm:"type:text" json:"error_message,omitempty"`
	RefID     string    `gorm:"size:100;index" json:"reference_id"`
	RefType   string    `gorm:"size:30" json:"reference_type"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
