package events

import (
	"encoding/json"
	"fmt"
)

// Event types carried in the payload envelope. Consumers branch on these,
// not on broker routing keys, so a replayed or re-routed message still lands
// in the right handler.
const (
	TypeBookingCreated       = "BOOKING_CREATED"
	TypeBookingStatusChanged = "BOOKING_STATUS_CHANGED"
	TypeUserRegistered       = "USER_REGISTERED"
	TypeMessageReceived      = "MESSAGE_RECEIVED"
)

// Routing keys used on the topic exchange.
const (
	KeyBookingCreated       = "booking.created"
	KeyBookingStatusChanged = "booking.status.changed"
	KeyUserRegistered       = "user.registered"
	KeyMessageReceived      = "message.received"
)

// Envelope is the minimal shape decoded first to pick the event variant.
type Envelope struct {
	EventType string `json:"eventType"`
}

// BookingCreated carries enough denormalized context that the notification
// consumer never calls back into other services.
type BookingCreated struct {
	EventType string `json:"eventType"`
	BookingID string `json:"bookingId"`

	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`

	ProviderID    string `json:"providerId"`
	ProviderName  string `json:"providerName"`
	ProviderEmail string `json:"providerEmail"`

	SkillID   string `json:"skillId"`
	SkillName string `json:"skillName"`

	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	SessionTime string `json:"sessionTime"`

	TotalPrice string `json:"totalPrice"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	CreatedAt  string `json:"createdAt"`
}

// BookingStatusChanged is the BookingCreated envelope plus the transition.
type BookingStatusChanged struct {
	EventType string `json:"eventType"`
	BookingID string `json:"bookingId"`

	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`

	ProviderID    string `json:"providerId"`
	ProviderName  string `json:"providerName"`
	ProviderEmail string `json:"providerEmail"`

	SkillID   string `json:"skillId"`
	SkillName string `json:"skillName"`

	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	SessionTime string `json:"sessionTime"`

	TotalPrice string `json:"totalPrice"`

	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Reason    string `json:"reason"`
	ChangedAt string `json:"changedAt"`
}

type UserRegistered struct {
	EventType string `json:"eventType"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type MessageReceived struct {
	EventType      string `json:"eventType"`
	MessageID      string `json:"messageId"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
	ReceiverID     string `json:"receiverId"`
	ReceiverEmail  string `json:"receiverEmail"`
	MessageContent string `json:"messageContent"`
}

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode event payload: %w", err)
	}
	return t, nil
}
