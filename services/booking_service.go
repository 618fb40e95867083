package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/events"
	"github.com/kiptoo95/skill_exchange/models"
)

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidWindow          = errors.New("end time must be after start time and start time cannot be in the past")
	ErrSelfBooking            = errors.New("cannot book your own skill")
	ErrNotOwner               = errors.New("only the skill provider can perform this action")
	ErrNotParticipant         = errors.New("you do not have access to this booking")
	ErrInvalidTransition      = errors.New("booking status does not allow this transition")
	ErrConcurrentModification = errors.New("booking was modified concurrently, please retry")
)

// EventPublisher is the bus boundary. Publish failures never fail the
// triggering transition; the transition is already committed by then.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

type BookingService struct {
	db        *gorm.DB
	directory Directory
	publisher EventPublisher
}

func NewBookingService(db *gorm.DB, directory Directory, publisher EventPublisher) *BookingService {
	return &BookingService{db: db, directory: directory, publisher: publisher}
}

type CreateBookingInput struct {
	SkillID   uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

func (s *BookingService) Create(ctx context.Context, userID uuid.UUID, in CreateBookingInput) (*models.Booking, error) {
	log.Printf("Creating booking for user %s with skill %s", userID, in.SkillID)

	if !in.EndTime.After(in.StartTime) || in.StartTime.Before(time.Now()) {
		return nil, ErrInvalidWindow
	}

	skill, err := s.directory.GetSkill(ctx, in.SkillID)
	if err != nil {
		return nil, err
	}
	if userID == skill.UserID {
		return nil, ErrSelfBooking
	}

	hours := round2(in.EndTime.Sub(in.StartTime).Minutes() / 60)
	total := round2(skill.PricePerHour * hours)

	booking := models.Booking{
		UserID:       userID,
		ProviderID:   skill.UserID,
		SkillID:      in.SkillID,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		TotalHours:   hours,
		PricePerHour: skill.PricePerHour,
		TotalPrice:   total,
		Status:       models.StatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		history := models.BookingHistory{
			BookingID: booking.ID,
			OldStatus: nil,
			NewStatus: models.StatusPending,
			Metadata:  "Booking created by user",
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %s created with total price %.2f", booking.ID, total)
	s.publishBookingCreated(ctx, &booking)
	return &booking, nil
}

func (s *BookingService) Accept(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}
	return s.applyTransition(ctx, booking, models.StatusConfirmed, "Accepted by provider")
}

func (s *BookingService) Reject(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*models.Booking, error) {
	booking, err := s.load(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}
	metadata := "Rejected by provider"
	if reason != "" {
		metadata = "Rejected by provider: " + reason
	}
	return s.applyTransition(ctx, booking, models.StatusRejected, metadata)
}

func (s *BookingService) Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != actorID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusConfirmed {
		return nil, ErrInvalidTransition
	}
	return s.applyTransition(ctx, booking, models.StatusCompleted, "Completed by provider")
}

// Cancel may be called by either participant as long as the booking is not
// already in a terminal state.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*models.Booking, error) {
	booking, err := s.load(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actorID && booking.ProviderID != actorID {
		return nil, ErrNotParticipant
	}
	if models.IsTerminalStatus(booking.Status) {
		return nil, ErrInvalidTransition
	}

	actor := "provider"
	if booking.UserID == actorID {
		actor = "user"
	}
	metadata := "Cancelled by " + actor
	if reason != "" {
		metadata += ": " + reason
	}
	return s.applyTransition(ctx, booking, models.StatusCancelled, metadata)
}

func (s *BookingService) GetBooking(bookingID, requesterID uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID && booking.ProviderID != requesterID {
		return nil, ErrNotParticipant
	}
	return booking, nil
}

func (s *BookingService) ListByUser(userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) ListByProvider(providerID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.Where("provider_id = ?", providerID).Order("created_at desc").Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) ListAll() ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.Order("created_at desc").Find(&bookings).Error
	return bookings, err
}

// History returns the audit trail for one booking, oldest entry first.
func (s *BookingService) History(bookingID, requesterID uuid.UUID) ([]models.BookingHistory, error) {
	if _, err := s.GetBooking(bookingID, requesterID); err != nil {
		return nil, err
	}
	var entries []models.BookingHistory
	err := s.db.Where("booking_id = ?", bookingID).Order("created_at asc").Find(&entries).Error
	return entries, err
}

type BookingStats struct {
	Total        int64   `json:"total"`
	Pending      int64   `json:"pending"`
	Confirmed    int64   `json:"confirmed"`
	Completed    int64   `json:"completed"`
	Cancelled    int64   `json:"cancelled"`
	Rejected     int64   `json:"rejected"`
	TotalRevenue float64 `json:"totalRevenue"`
}

func (s *BookingService) Stats() (*BookingStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.Booking{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := BookingStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.StatusPending:
			stats.Pending = row.Count
		case models.StatusConfirmed:
			stats.Confirmed = row.Count
		case models.StatusCompleted:
			stats.Completed = row.Count
		case models.StatusCancelled:
			stats.Cancelled = row.Count
		case models.StatusRejected:
			stats.Rejected = row.Count
		}
	}

	var revenue struct{ Total float64 }
	if err := s.db.Model(&models.Booking{}).
		Select("coalesce(sum(total_price), 0) as total").
		Where("status = ?", models.StatusCompleted).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total

	return &stats, nil
}

func (s *BookingService) load(bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// applyTransition writes the status change and its history entry atomically.
// The version guard rejects a transition that raced another writer.
func (s *BookingService) applyTransition(ctx context.Context, booking *models.Booking, newStatus, metadata string) (*models.Booking, error) {
	oldStatus := booking.Status

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND version = ?", booking.ID, booking.Version).
			Updates(map[string]any{"status": newStatus, "version": booking.Version + 1})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}

		history := models.BookingHistory{
			BookingID: booking.ID,
			OldStatus: &oldStatus,
			NewStatus: newStatus,
			Metadata:  metadata,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}

	booking.Status = newStatus
	booking.Version++

	log.Printf("✅ Booking %s moved %s -> %s", booking.ID, oldStatus, newStatus)
	s.publishStatusChanged(ctx, booking, oldStatus, newStatus, metadata)
	return booking, nil
}

const publishTimeout = 5 * time.Second

func (s *BookingService) publishBookingCreated(ctx context.Context, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	skill, user, provider, err := s.lookupParties(ctx, booking)
	if err != nil {
		log.Printf("🔥 Failed to build BookingCreated event for booking %s: %v", booking.ID, err)
		return
	}

	event := events.BookingCreated{
		EventType: events.TypeBookingCreated,
		BookingID: booking.ID.String(),

		UserID:    booking.UserID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,

		ProviderID:    booking.ProviderID.String(),
		ProviderName:  provider.Name,
		ProviderEmail: provider.Email,

		SkillID:   booking.SkillID.String(),
		SkillName: skill.Name,

		StartTime:   booking.StartTime.Format(time.RFC3339),
		EndTime:     booking.EndTime.Format(time.RFC3339),
		SessionTime: formatSessionTime(booking.StartTime, booking.EndTime),

		TotalPrice: strconv.FormatFloat(booking.TotalPrice, 'f', 2, 64),
		Status:     booking.Status,
		Message:    "",
		CreatedAt:  booking.CreatedAt.Format(time.RFC3339),
	}

	if err := s.publisher.PublishJSON(ctx, events.KeyBookingCreated, booking.ID.String(), event); err != nil {
		log.Printf("🔥 Failed to publish BookingCreated for booking %s: %v", booking.ID, err)
		return
	}
	log.Printf("✅ Published BookingCreated for booking %s", booking.ID)
}

func (s *BookingService) publishStatusChanged(ctx context.Context, booking *models.Booking, oldStatus, newStatus, reason string) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	skill, user, provider, err := s.lookupParties(ctx, booking)
	if err != nil {
		log.Printf("🔥 Failed to build BookingStatusChanged event for booking %s: %v", booking.ID, err)
		return
	}

	event := events.BookingStatusChanged{
		EventType: events.TypeBookingStatusChanged,
		BookingID: booking.ID.String(),

		UserID:    booking.UserID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,

		ProviderID:    booking.ProviderID.String(),
		ProviderName:  provider.Name,
		ProviderEmail: provider.Email,

		SkillID:   booking.SkillID.String(),
		SkillName: skill.Name,

		StartTime:   booking.StartTime.Format(time.RFC3339),
		EndTime:     booking.EndTime.Format(time.RFC3339),
		SessionTime: formatSessionTime(booking.StartTime, booking.EndTime),

		TotalPrice: strconv.FormatFloat(booking.TotalPrice, 'f', 2, 64),

		OldStatus: oldStatus,
		NewStatus: newStatus,
		Reason:    reason,
		ChangedAt: time.Now().Format(time.RFC3339),
	}

	if err := s.publisher.PublishJSON(ctx, events.KeyBookingStatusChanged, booking.ID.String(), event); err != nil {
		log.Printf("🔥 Failed to publish BookingStatusChanged for booking %s: %v", booking.ID, err)
		return
	}
	log.Printf("✅ Published BookingStatusChanged for booking %s", booking.ID)
}

func (s *BookingService) lookupParties(ctx context.Context, booking *models.Booking) (*SkillDetails, *UserDetails, *UserDetails, error) {
	skill, err := s.directory.GetSkill(ctx, booking.SkillID)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := s.directory.GetUser(ctx, booking.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := s.directory.GetUser(ctx, booking.ProviderID)
	if err != nil {
		return nil, nil, nil, err
	}
	return skill, user, provider, nil
}

func formatSessionTime(start, end time.Time) string {
	return start.Format("03:04 PM") + " - " + end.Format("03:04 PM")
}

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
