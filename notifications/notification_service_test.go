package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/events"
	"github.com/kiptoo95/skill_exchange/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.NotificationLog{}, &models.DeviceToken{}))
	return db
}

type emailCall struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

type fakeEmail struct {
	mu    sync.Mutex
	calls []emailCall
	err   error
}

func (f *fakeEmail) Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emailCall{ToName: toName, ToEmail: toEmail, Subject: subject, HTML: htmlContent})
	return f.err
}

func (f *fakeEmail) sent() []emailCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emailCall(nil), f.calls...)
}

type fakeSocket struct {
	mu       sync.Mutex
	accepted bool
	sent     []uuid.UUID
}

func (f *fakeSocket) SendToUser(userID uuid.UUID, payload SocketPayload) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, userID)
	return f.accepted
}

type fakePush struct {
	mu        sync.Mutex
	attempted bool
	err       error
	sent      []uuid.UUID
}

func (f *fakePush) SendToUser(ctx context.Context, userID uuid.UUID, title, message, actionURL string, data map[string]string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, userID)
	return f.attempted, f.err
}

type routerFixture struct {
	svc    *NotificationService
	logs   *DeliveryLogService
	db     *gorm.DB
	email  *fakeEmail
	socket *fakeSocket
	push   *fakePush
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	db := newTestDB(t)
	logs := NewDeliveryLogService(db)
	email := &fakeEmail{}
	socket := &fakeSocket{accepted: true}
	push := &fakePush{attempted: true}
	return &routerFixture{
		svc:    NewNotificationService(email, socket, push, logs),
		logs:   logs,
		db:     db,
		email:  email,
		socket: socket,
		push:   push,
	}
}

func statusChangedEvent(newStatus string) (events.BookingStatusChanged, uuid.UUID, uuid.UUID) {
	userID := uuid.New()
	providerID := uuid.New()
	return events.BookingStatusChanged{
		EventType:     events.TypeBookingStatusChanged,
		BookingID:     uuid.New().String(),
		UserID:        userID.String(),
		UserName:      "Alice",
		UserEmail:     "alice@example.com",
		ProviderID:    providerID.String(),
		ProviderName:  "Bob",
		ProviderEmail: "bob@example.com",
		SkillName:     "Guitar Lessons",
		SessionTime:   "02:00 PM - 03:00 PM",
		TotalPrice:    "40.00",
		OldStatus:     models.StatusPending,
		NewStatus:     newStatus,
	}, userID, providerID
}

func TestConfirmedNotifiesRequesterOnly(t *testing.T) {
	f := newRouterFixture(t)
	ev, userID, providerID := statusChangedEvent(models.StatusConfirmed)

	f.svc.HandleBookingConfirmed(ev)

	emails := f.email.sent()
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@example.com", emails[0].ToEmail)
	assert.Contains(t, emails[0].Subject, "Confirmed")

	var entries []models.NotificationLog
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, userID, entry.UserID)
		assert.NotEqual(t, providerID, entry.UserID)
		assert.Equal(t, models.NotificationSent, entry.Status)
	}
}

func TestBookingCreatedNotifiesBothParties(t *testing.T) {
	f := newRouterFixture(t)
	userID := uuid.New()
	providerID := uuid.New()
	ev := events.BookingCreated{
		EventType:     events.TypeBookingCreated,
		BookingID:     uuid.New().String(),
		UserID:        userID.String(),
		UserName:      "Alice",
		UserEmail:     "alice@example.com",
		ProviderID:    providerID.String(),
		ProviderName:  "Bob",
		ProviderEmail: "bob@example.com",
		SkillName:     "Guitar Lessons",
		SessionTime:   "02:00 PM - 03:00 PM",
		TotalPrice:    "40.00",
		Status:        models.StatusPending,
	}

	f.svc.HandleBookingCreated(ev)

	emails := f.email.sent()
	require.Len(t, emails, 2)
	recipients := []string{emails[0].ToEmail, emails[1].ToEmail}
	assert.Contains(t, recipients, "bob@example.com")
	assert.Contains(t, recipients, "alice@example.com")

	// Two intents, three channels each.
	var count int64
	require.NoError(t, f.db.Model(&models.NotificationLog{}).Count(&count).Error)
	assert.Equal(t, int64(6), count)

	byRef, err := f.logs.ListByReference(ev.BookingID)
	require.NoError(t, err)
	assert.Len(t, byRef, 6)
}

func TestEmailFailureDoesNotBlockOtherChannels(t *testing.T) {
	f := newRouterFixture(t)
	f.email.err = errors.New("smtp relay down")
	ev, userID, _ := statusChangedEvent(models.StatusConfirmed)

	f.svc.HandleBookingConfirmed(ev)

	assert.Len(t, f.socket.sent, 1)
	assert.Len(t, f.push.sent, 1)

	failed, err := f.logs.ListByStatus(userID, models.NotificationFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.ChannelEmail, failed[0].Channel)
	require.NotNil(t, failed[0].ErrorMsg)
	assert.Equal(t, "smtp relay down", *failed[0].ErrorMsg)

	sent, err := f.logs.ListByStatus(userID, models.NotificationSent)
	require.NoError(t, err)
	assert.Len(t, sent, 2)
}

func TestSocketMissFailsOnlySocketChannel(t *testing.T) {
	f := newRouterFixture(t)
	f.socket.accepted = false
	ev, userID, _ := statusChangedEvent(models.StatusConfirmed)

	f.svc.HandleBookingConfirmed(ev)

	failed, err := f.logs.ListByStatus(userID, models.NotificationFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.ChannelSocket, failed[0].Channel)
	require.NotNil(t, failed[0].ErrorMsg)
	assert.Equal(t, "no active socket connection", *failed[0].ErrorMsg)
}

func TestPushNotAttemptedLeavesNoLogEntry(t *testing.T) {
	f := newRouterFixture(t)
	f.push.attempted = false
	ev, userID, _ := statusChangedEvent(models.StatusConfirmed)

	f.svc.HandleBookingConfirmed(ev)

	var channels []string
	require.NoError(t, f.db.Model(&models.NotificationLog{}).
		Where("user_id = ?", userID).
		Pluck("channel", &channels).Error)
	require.Len(t, channels, 2)
	assert.NotContains(t, channels, models.ChannelPush)
}

func TestEmailUnconfiguredSkipsChannelSilently(t *testing.T) {
	db := newTestDB(t)
	logs := NewDeliveryLogService(db)
	socket := &fakeSocket{accepted: true}
	push := &fakePush{attempted: true}
	svc := NewNotificationService(nil, socket, push, logs)

	ev, userID, _ := statusChangedEvent(models.StatusConfirmed)
	svc.HandleBookingConfirmed(ev)

	var channels []string
	require.NoError(t, db.Model(&models.NotificationLog{}).
		Where("user_id = ?", userID).
		Pluck("channel", &channels).Error)
	require.Len(t, channels, 2)
	assert.NotContains(t, channels, models.ChannelEmail)
}

func TestDeclinedCarriesReason(t *testing.T) {
	f := newRouterFixture(t)
	ev, _, _ := statusChangedEvent(models.StatusRejected)
	ev.Reason = "fully booked that week"

	f.svc.HandleBookingDeclined(ev)

	emails := f.email.sent()
	require.Len(t, emails, 1)
	assert.Contains(t, emails[0].HTML, "fully booked that week")
}

func TestMessagePreviewTruncated(t *testing.T) {
	f := newRouterFixture(t)
	long := strings.Repeat("a", 150)
	receiverID := uuid.New()

	f.svc.HandleMessageReceived(events.MessageReceived{
		EventType:      events.TypeMessageReceived,
		MessageID:      uuid.New().String(),
		SenderID:       uuid.New().String(),
		SenderName:     "Bob",
		ReceiverID:     receiverID.String(),
		ReceiverEmail:  "alice@example.com",
		MessageContent: long,
	})

	var entry models.NotificationLog
	require.NoError(t, f.db.Where("user_id = ? AND channel = ?", receiverID, models.ChannelSocket).First(&entry).Error)
	assert.Equal(t, strings.Repeat("a", 100)+"...", entry.Content)
}

func TestInvalidRecipientIDDropsEvent(t *testing.T) {
	f := newRouterFixture(t)
	ev, _, _ := statusChangedEvent(models.StatusConfirmed)
	ev.UserID = "not-a-uuid"

	f.svc.HandleBookingConfirmed(ev)

	var count int64
	require.NoError(t, f.db.Model(&models.NotificationLog{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.email.sent())
}
