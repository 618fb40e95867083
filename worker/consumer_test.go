package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/events"
	"github.com/kiptoo95/skill_exchange/models"
	"github.com/kiptoo95/skill_exchange/notifications"
)

type recordingEmail struct {
	mu   sync.Mutex
	sent []string
}

func (f *recordingEmail) Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, subject)
	return nil
}

func (f *recordingEmail) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type acceptingSocket struct{}

func (acceptingSocket) SendToUser(userID uuid.UUID, payload notifications.SocketPayload) bool {
	return true
}

type silentPush struct{}

func (silentPush) SendToUser(ctx context.Context, userID uuid.UUID, title, message, actionURL string, data map[string]string) (bool, error) {
	return false, nil
}

func newHandlerFixture(t *testing.T) (*Consumer, *recordingEmail, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.NotificationLog{}))

	email := &recordingEmail{}
	router := notifications.NewNotificationService(email, acceptingSocket{}, silentPush{}, notifications.NewDeliveryLogService(db))
	consumer := NewConsumer(Config{ServiceName: "notify-test"}, router)
	return consumer, email, db
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleRoutesBookingCreated(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)

	consumer.Handle(marshal(t, events.BookingCreated{
		EventType:     events.TypeBookingCreated,
		BookingID:     uuid.New().String(),
		UserID:        uuid.New().String(),
		UserName:      "Alice",
		UserEmail:     "alice@example.com",
		ProviderID:    uuid.New().String(),
		ProviderName:  "Bob",
		ProviderEmail: "bob@example.com",
		SkillName:     "Guitar Lessons",
	}))

	subjects := email.subjects()
	require.Len(t, subjects, 2)
	assert.Contains(t, subjects, "New Booking Request from Alice")
}

func TestHandleRoutesStatusByNewStatus(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)
	base := events.BookingStatusChanged{
		EventType:     events.TypeBookingStatusChanged,
		BookingID:     uuid.New().String(),
		UserID:        uuid.New().String(),
		UserName:      "Alice",
		UserEmail:     "alice@example.com",
		ProviderName:  "Bob",
		ProviderEmail: "bob@example.com",
		SkillName:     "Guitar Lessons",
	}

	confirmed := base
	confirmed.NewStatus = models.StatusConfirmed
	consumer.Handle(marshal(t, confirmed))

	rejected := base
	rejected.NewStatus = models.StatusRejected
	consumer.Handle(marshal(t, rejected))

	cancelled := base
	cancelled.NewStatus = models.StatusCancelled
	consumer.Handle(marshal(t, cancelled))

	subjects := email.subjects()
	require.Len(t, subjects, 3)
	assert.Equal(t, "Booking Confirmed with Bob", subjects[0])
	assert.Equal(t, "Booking Request Declined - Guitar Lessons", subjects[1])
	assert.Equal(t, "Booking Request Declined - Guitar Lessons", subjects[2])
}

func TestHandleDropsUnknownStatus(t *testing.T) {
	consumer, email, db := newHandlerFixture(t)

	ev := events.BookingStatusChanged{
		EventType: events.TypeBookingStatusChanged,
		BookingID: uuid.New().String(),
		UserID:    uuid.New().String(),
		NewStatus: "COMPLETED",
	}
	consumer.Handle(marshal(t, ev))

	assert.Empty(t, email.subjects())
	var count int64
	require.NoError(t, db.Model(&models.NotificationLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleRoutesUserRegistered(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)

	consumer.Handle(marshal(t, events.UserRegistered{
		EventType: events.TypeUserRegistered,
		UserID:    uuid.New().String(),
		Name:      "Alice",
		Email:     "alice@example.com",
	}))

	subjects := email.subjects()
	require.Len(t, subjects, 1)
	assert.Equal(t, "Welcome to Skill Exchange!", subjects[0])
}

func TestHandleRoutesMessageReceived(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)

	consumer.Handle(marshal(t, events.MessageReceived{
		EventType:      events.TypeMessageReceived,
		MessageID:      uuid.New().String(),
		SenderID:       uuid.New().String(),
		SenderName:     "Bob",
		ReceiverID:     uuid.New().String(),
		ReceiverEmail:  "alice@example.com",
		MessageContent: "hey, still on for tomorrow?",
	}))

	subjects := email.subjects()
	require.Len(t, subjects, 1)
	assert.Equal(t, "New Message from Bob", subjects[0])
}

func TestHandleDropsUnknownEventType(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)

	consumer.Handle([]byte(`{"eventType":"SKILL_UPDATED"}`))
	assert.Empty(t, email.subjects())
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	consumer, email, _ := newHandlerFixture(t)

	consumer.Handle([]byte(`{not json`))
	assert.Empty(t, email.subjects())
}
