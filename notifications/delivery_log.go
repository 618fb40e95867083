package notifications

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/models"
)

// Outcome is what a channel dispatcher reports back for one attempt.
type Outcome struct {
	Success bool
	Error   string
}

type DeliveryLogService struct {
	db *gorm.DB
}

func NewDeliveryLogService(db *gorm.DB) *DeliveryLogService {
	return &DeliveryLogService{db: db}
}

// Record appends one delivery log row. It never fails the caller: losing an
// audit record must not block the dispatch path, so write errors are only
// logged.
func (s *DeliveryLogService) Record(userID uuid.UUID, address, channel, category, subject, content string, outcome Outcome, refID, refType string) {
	entry := models.NotificationLog{
		UserID:   userID,
		Address:  address,
		Channel:  channel,
		Category: category,
		Subject:  subject,
		Content:  content,
		RefID:    refID,
		RefType:  refType,
	}

	if outcome.Success {
		now := time.Now()
		entry.Status = models.NotificationSent
		entry.SentAt = &now
	} else {
		entry.Status = models.NotificationFailed
		if outcome.Error != "" {
			msg := outcome.Error
			entry.ErrorMsg = &msg
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to save delivery log for user %s channel %s: %v", userID, channel, err)
	}
}

func (s *DeliveryLogService) ListByRecipient(userID uuid.UUID, limit, offset int) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (s *DeliveryLogService) ListByStatus(userID uuid.UUID, status string) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := s.db.Where("user_id = ? AND status = ?", userID, status).
		Order("created_at desc").
		Find(&entries).Error
	return entries, err
}

func (s *DeliveryLogService) ListByReference(refID string) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := s.db.Where("ref_id = ?", refID).
		Order("created_at desc").
		Find(&entries).Error
	return entries, err
}

type DeliveryCounts struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

func (s *DeliveryLogService) Counts(userID uuid.UUID) (*DeliveryCounts, error) {
	var counts DeliveryCounts
	if err := s.db.Model(&models.NotificationLog{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationSent).
		Count(&counts.Sent).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.NotificationLog{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationFailed).
		Count(&counts.Failed).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
