package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/models"
)

func TestRegisterDeviceUpsertsByToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewDeviceTokenService(db)
	userID := uuid.New()

	first, err := svc.Register(userID, RegisterDeviceInput{Token: "tok-1", Platform: "ANDROID"})
	require.NoError(t, err)
	assert.True(t, first.Active)

	// Same token again must not create a second row.
	name := "Pixel 8"
	second, err := svc.Register(userID, RegisterDeviceInput{Token: "tok-1", Platform: "ANDROID", DeviceName: &name})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.DeviceName)
	assert.Equal(t, "Pixel 8", *second.DeviceName)

	var count int64
	require.NoError(t, db.Model(&models.DeviceToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterDeviceRehomesToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewDeviceTokenService(db)
	oldOwner := uuid.New()
	newOwner := uuid.New()

	_, err := svc.Register(oldOwner, RegisterDeviceInput{Token: "tok-1", Platform: "IOS"})
	require.NoError(t, err)

	rehomed, err := svc.Register(newOwner, RegisterDeviceInput{Token: "tok-1", Platform: "IOS"})
	require.NoError(t, err)
	assert.Equal(t, newOwner, rehomed.UserID)

	var count int64
	require.NoError(t, db.Model(&models.DeviceToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnregisterDeactivatesWithoutDeleting(t *testing.T) {
	db := newTestDB(t)
	svc := NewDeviceTokenService(db)
	userID := uuid.New()

	_, err := svc.Register(userID, RegisterDeviceInput{Token: "tok-1", Platform: "WEB"})
	require.NoError(t, err)

	require.NoError(t, svc.Unregister("tok-1"))

	var token models.DeviceToken
	require.NoError(t, db.Where("token = ?", "tok-1").First(&token).Error)
	assert.False(t, token.Active)

	// A re-register revives the same row.
	revived, err := svc.Register(userID, RegisterDeviceInput{Token: "tok-1", Platform: "WEB"})
	require.NoError(t, err)
	assert.True(t, revived.Active)
	assert.Equal(t, token.ID, revived.ID)
}

func TestUnregisterUnknownToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewDeviceTokenService(db)

	err := svc.Unregister("never-seen")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPruneInactiveRemovesStaleTokens(t *testing.T) {
	db := newTestDB(t)
	svc := NewDeviceTokenService(db)
	userID := uuid.New()

	_, err := svc.Register(userID, RegisterDeviceInput{Token: "fresh", Platform: "ANDROID"})
	require.NoError(t, err)
	stale, err := svc.Register(userID, RegisterDeviceInput{Token: "stale", Platform: "ANDROID"})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.DeviceToken{}).
		Where("id = ?", stale.ID).
		Update("last_used", time.Now().Add(-120*24*time.Hour)).Error)

	pruned, err := svc.PruneInactive(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	var tokens []models.DeviceToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, "fresh", tokens[0].Token)
}
