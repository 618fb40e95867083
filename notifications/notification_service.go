package notifications

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiptoo95/skill_exchange/events"
)

// channelTimeout bounds each external channel call so one slow provider
// cannot stall a dispatch worker.
const channelTimeout = 10 * time.Second

// EmailSender, SocketSender and PushSender are the three delivery channels.
// Each has its own failure domain; the router isolates them per channel.
type EmailSender interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error
}

type SocketSender interface {
	SendToUser(userID uuid.UUID, payload SocketPayload) bool
}

type PushSender interface {
	SendToUser(ctx context.Context, userID uuid.UUID, title, message, actionURL string, data map[string]string) (attempted bool, err error)
}

// Intent describes one notification for one recipient. It lives only in
// memory; what gets persisted is the per-channel delivery outcome.
type Intent struct {
	RecipientID    uuid.UUID
	RecipientName  string
	RecipientEmail string
	Title          string
	Message        string
	Category       string
	ActionURL      string
	RefID          string
	RefType        string
	EmailSubject   string
	EmailHTML      string
}

type NotificationService struct {
	email  EmailSender
	socket SocketSender
	push   PushSender
	logs   *DeliveryLogService
}

func NewNotificationService(email EmailSender, socket SocketSender, push PushSender, logs *DeliveryLogService) *NotificationService {
	return &NotificationService{email: email, socket: socket, push: push, logs: logs}
}

// HandleBookingCreated notifies the provider of the new request and sends a
// submission confirmation back to the requester.
func (s *NotificationService) HandleBookingCreated(ev events.BookingCreated) {
	log.Printf("📩 Booking request notification for booking %s (provider %s, user %s)", ev.BookingID, ev.ProviderName, ev.UserName)

	providerID, err := uuid.Parse(ev.ProviderID)
	if err != nil {
		log.Printf("⚠️ Invalid provider id in BookingCreated event: %v", err)
		return
	}
	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		log.Printf("⚠️ Invalid user id in BookingCreated event: %v", err)
		return
	}

	actionURL := "/bookings/" + ev.BookingID

	s.Dispatch(Intent{
		RecipientID:    providerID,
		RecipientName:  ev.ProviderName,
		RecipientEmail: ev.ProviderEmail,
		Title:          "New Booking Request",
		Message:        fmt.Sprintf("%s wants to book %s", ev.UserName, ev.SkillName),
		Category:       "BOOKING",
		ActionURL:      actionURL,
		RefID:          ev.BookingID,
		RefType:        "BOOKING",
		EmailSubject:   fmt.Sprintf("New Booking Request from %s", ev.UserName),
		EmailHTML:      bookingRequestHTML(ev),
	})

	s.Dispatch(Intent{
		RecipientID:    userID,
		RecipientName:  ev.UserName,
		RecipientEmail: ev.UserEmail,
		Title:          "Booking Request Sent",
		Message:        fmt.Sprintf("Your request for %s has been sent to %s", ev.SkillName, ev.ProviderName),
		Category:       "BOOKING",
		ActionURL:      actionURL,
		RefID:          ev.BookingID,
		RefType:        "BOOKING",
		EmailSubject:   fmt.Sprintf("Booking Request Submitted - %s", ev.SkillName),
		EmailHTML:      bookingSubmittedHTML(ev),
	})
}

// HandleBookingConfirmed notifies the original requester, never the provider.
func (s *NotificationService) HandleBookingConfirmed(ev events.BookingStatusChanged) {
	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		log.Printf("⚠️ Invalid user id in BookingStatusChanged event: %v", err)
		return
	}

	s.Dispatch(Intent{
		RecipientID:    userID,
		RecipientName:  ev.UserName,
		RecipientEmail: ev.UserEmail,
		Title:          "Booking Confirmed!",
		Message:        fmt.Sprintf("%s confirmed your %s session", ev.ProviderName, ev.SkillName),
		Category:       "BOOKING",
		ActionURL:      "/bookings/" + ev.BookingID,
		RefID:          ev.BookingID,
		RefType:        "BOOKING",
		EmailSubject:   fmt.Sprintf("Booking Confirmed with %s", ev.ProviderName),
		EmailHTML:      statusChangedHTML(ev, "Your booking has been confirmed."),
	})
}

// HandleBookingDeclined covers both REJECTED and CANCELLED; the requester is
// told either way.
func (s *NotificationService) HandleBookingDeclined(ev events.BookingStatusChanged) {
	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		log.Printf("⚠️ Invalid user id in BookingStatusChanged event: %v", err)
		return
	}

	s.Dispatch(Intent{
		RecipientID:    userID,
		RecipientName:  ev.UserName,
		RecipientEmail: ev.UserEmail,
		Title:          "Booking Declined",
		Message:        fmt.Sprintf("%s declined your %s request", ev.ProviderName, ev.SkillName),
		Category:       "BOOKING",
		ActionURL:      "/bookings/" + ev.BookingID,
		RefID:          ev.BookingID,
		RefType:        "BOOKING",
		EmailSubject:   fmt.Sprintf("Booking Request Declined - %s", ev.SkillName),
		EmailHTML:      statusChangedHTML(ev, "Your booking request was declined."),
	})
}

func (s *NotificationService) HandleUserRegistered(ev events.UserRegistered) {
	userID, err := uuid.Parse(ev.UserID)
	if err != nil {
		log.Printf("⚠️ Invalid user id in UserRegistered event: %v", err)
		return
	}

	s.Dispatch(Intent{
		RecipientID:    userID,
		RecipientName:  ev.Name,
		RecipientEmail: ev.Email,
		Title:          "Welcome to Skill Exchange!",
		Message:        fmt.Sprintf("Welcome aboard, %s! Start learning and teaching today.", ev.Name),
		Category:       "USER",
		ActionURL:      "/profile",
		RefID:          ev.UserID,
		RefType:        "USER",
		EmailSubject:   "Welcome to Skill Exchange!",
		EmailHTML:      fmt.Sprintf("<h1>Welcome, %s!</h1><p>Your account is ready. Browse skills, book a session, or start teaching today.</p>", ev.Name),
	})
}

func (s *NotificationService) HandleMessageReceived(ev events.MessageReceived) {
	receiverID, err := uuid.Parse(ev.ReceiverID)
	if err != nil {
		log.Printf("⚠️ Invalid receiver id in MessageReceived event: %v", err)
		return
	}

	preview := truncate(ev.MessageContent, 100)

	s.Dispatch(Intent{
		RecipientID:    receiverID,
		RecipientEmail: ev.ReceiverEmail,
		Title:          "New Message from " + ev.SenderName,
		Message:        preview,
		Category:       "MESSAGE",
		ActionURL:      "/chat/" + ev.SenderID,
		RefID:          ev.MessageID,
		RefType:        "MESSAGE",
		EmailSubject:   "New Message from " + ev.SenderName,
		EmailHTML:      fmt.Sprintf("<h1>New Message</h1><p><b>%s</b> sent you a message:</p><blockquote>%s</blockquote>", ev.SenderName, preview),
	})
}

// Dispatch fans the intent out to all three channels concurrently. A failure
// in one channel never prevents the others from running, and each attempted
// channel produces exactly one delivery log entry.
func (s *NotificationService) Dispatch(in Intent) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.dispatchEmail(in)
	}()
	go func() {
		defer wg.Done()
		s.dispatchSocket(in)
	}()
	go func() {
		defer wg.Done()
		s.dispatchPush(in)
	}()
	wg.Wait()
}

func (s *NotificationService) dispatchEmail(in Intent) {
	if s.email == nil {
		log.Printf("Email channel not configured, skipping for user %s", in.RecipientID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), channelTimeout)
	defer cancel()

	outcome := Outcome{Success: true}
	if err := s.email.Send(ctx, in.RecipientName, in.RecipientEmail, in.EmailSubject, in.EmailHTML); err != nil {
		log.Printf("🔥 Email dispatch failed for user %s: %v", in.RecipientID, err)
		outcome = Outcome{Success: false, Error: err.Error()}
	}
	s.logs.Record(in.RecipientID, in.RecipientEmail, "EMAIL", in.Category, in.EmailSubject, in.EmailHTML, outcome, in.RefID, in.RefType)
}

func (s *NotificationService) dispatchSocket(in Intent) {
	accepted := s.socket.SendToUser(in.RecipientID, SocketPayload{
		Title:     in.Title,
		Message:   in.Message,
		Category:  in.Category,
		ActionURL: in.ActionURL,
	})

	outcome := Outcome{Success: accepted}
	if !accepted {
		outcome.Error = "no active socket connection"
	}
	s.logs.Record(in.RecipientID, in.RecipientID.String(), "SOCKET", in.Category, in.Title, in.Message, outcome, in.RefID, in.RefType)
}

func (s *NotificationService) dispatchPush(in Intent) {
	ctx, cancel := context.WithTimeout(context.Background(), channelTimeout)
	defer cancel()

	data := map[string]string{
		"type":        in.Category,
		"actionUrl":   in.ActionURL,
		"referenceId": in.RefID,
	}
	attempted, err := s.push.SendToUser(ctx, in.RecipientID, in.Title, in.Message, in.ActionURL, data)
	if !attempted {
		return
	}

	outcome := Outcome{Success: true}
	if err != nil {
		log.Printf("🔥 Push dispatch failed for user %s: %v", in.RecipientID, err)
		outcome = Outcome{Success: false, Error: err.Error()}
	}
	s.logs.Record(in.RecipientID, in.RecipientID.String(), "PUSH", in.Category, in.Title, in.Message, outcome, in.RefID, in.RefType)
}

func bookingRequestHTML(ev events.BookingCreated) string {
	return fmt.Sprintf(
		"<h1>New Booking Request</h1><p><b>%s</b> wants to book <b>%s</b>.</p><p>Session: %s</p><p>Total: $%s</p><p>Log in to your dashboard to accept or decline.</p>",
		ev.UserName, ev.SkillName, ev.SessionTime, ev.TotalPrice,
	)
}

func bookingSubmittedHTML(ev events.BookingCreated) string {
	return fmt.Sprintf(
		"<h1>Booking Request Submitted</h1><p>Hi %s,</p><p>Your request for <b>%s</b> with %s has been sent.</p><p>Session: %s</p><p>Total: $%s</p><p>You will be notified once the provider responds.</p>",
		ev.UserName, ev.SkillName, ev.ProviderName, ev.SessionTime, ev.TotalPrice,
	)
}

func statusChangedHTML(ev events.BookingStatusChanged, lead string) string {
	html := fmt.Sprintf(
		"<h1>Booking Update</h1><p>Hi %s,</p><p>%s</p><p>Skill: <b>%s</b> with %s</p><p>Session: %s</p>",
		ev.UserName, lead, ev.SkillName, ev.ProviderName, ev.SessionTime,
	)
	if ev.Reason != "" {
		html += fmt.Sprintf("<p>Note: %s</p>", ev.Reason)
	}
	return html
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
