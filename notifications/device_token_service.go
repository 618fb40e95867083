package notifications

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/models"
)

type DeviceTokenService struct {
	db *gorm.DB
}

func NewDeviceTokenService(db *gorm.DB) *DeviceTokenService {
	return &DeviceTokenService{db: db}
}

type RegisterDeviceInput struct {
	Token      string
	Platform   string
	DeviceName *string
	OSVersion  *string
	AppVersion *string
}

// Register upserts a device registration keyed by user + token. A token that
// moved to another user is re-homed; a soft-deactivated one is revived.
func (s *DeviceTokenService) Register(userID uuid.UUID, in RegisterDeviceInput) (*models.DeviceToken, error) {
	var token models.DeviceToken
	err := s.db.Where("token = ?", in.Token).First(&token).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		token = models.DeviceToken{
			UserID:     userID,
			Token:      in.Token,
			Platform:   in.Platform,
			DeviceName: in.DeviceName,
			OSVersion:  in.OSVersion,
			AppVersion: in.AppVersion,
			Active:     true,
			LastUsed:   time.Now(),
		}
		if err := s.db.Create(&token).Error; err != nil {
			return nil, err
		}
		log.Printf("✅ Device registered for user %s (%s)", userID, in.Platform)
		return &token, nil
	}

	token.UserID = userID
	token.Platform = in.Platform
	token.DeviceName = in.DeviceName
	token.OSVersion = in.OSVersion
	token.AppVersion = in.AppVersion
	token.Active = true
	token.LastUsed = time.Now()
	if err := s.db.Save(&token).Error; err != nil {
		return nil, err
	}
	log.Printf("✅ Device registration refreshed for user %s (%s)", userID, in.Platform)
	return &token, nil
}

// Unregister soft-deactivates; the row stays for audit until pruned.
func (s *DeviceTokenService) Unregister(token string) error {
	res := s.db.Model(&models.DeviceToken{}).
		Where("token = ?", token).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PruneInactive bulk-deletes registrations untouched for the given window.
func (s *DeviceTokenService) PruneInactive(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.db.Where("last_used < ?", cutoff).Delete(&models.DeviceToken{})
	return res.RowsAffected, res.Error
}
