package worker

import (
	"context"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kiptoo95/skill_exchange/eventbus"
	"github.com/kiptoo95/skill_exchange/events"
	"github.com/kiptoo95/skill_exchange/notifications"
)

type Config struct {
	RabbitURL   string
	Exchange    string
	Queue       string
	Bindings    []string
	Prefetch    int
	Workers     int
	QueueDepth  int
	ServiceName string
}

// Consumer drains bus deliveries into a bounded pool of dispatch workers.
// A full job queue blocks the consume loop, so the queue depth is the
// backpressure against the event-consumption rate.
type Consumer struct {
	cfg    Config
	router *notifications.NotificationService
	bus    *eventbus.Consumer
}

func NewConsumer(cfg Config, router *notifications.NotificationService) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	return &Consumer{cfg: cfg, router: router}
}

func (c *Consumer) Connect() error {
	bus, err := eventbus.NewConsumer(c.cfg.RabbitURL, c.cfg.Exchange, c.cfg.Queue, c.cfg.Bindings, c.cfg.Prefetch)
	if err != nil {
		return err
	}
	c.bus = bus
	return nil
}

func (c *Consumer) Close() {
	if c.bus != nil {
		_ = c.bus.Close()
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.bus.Deliveries(ctx, c.cfg.ServiceName)
	if err != nil {
		return err
	}

	jobs := make(chan amqp.Delivery, c.cfg.QueueDepth)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				c.Handle(d.Body)
				_ = d.Ack(false)
			}
		}()
	}

	log.Printf("✅ Notification consumer running with %d workers (queue depth %d)", c.cfg.Workers, c.cfg.QueueDepth)

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}
			jobs <- d
		}
	}
}

// Handle routes one event payload to the notification service. Unrecognized
// event types and statuses are logged and dropped, never retried.
func (c *Consumer) Handle(body []byte) {
	env, err := events.Decode[events.Envelope](body)
	if err != nil {
		log.Printf("🔥 Undecodable event payload, dropping: %v", err)
		return
	}

	switch env.EventType {
	case events.TypeBookingCreated:
		ev, err := events.Decode[events.BookingCreated](body)
		if err != nil {
			log.Printf("🔥 Bad BookingCreated payload, dropping: %v", err)
			return
		}
		c.router.HandleBookingCreated(ev)

	case events.TypeBookingStatusChanged:
		ev, err := events.Decode[events.BookingStatusChanged](body)
		if err != nil {
			log.Printf("🔥 Bad BookingStatusChanged payload, dropping: %v", err)
			return
		}
		switch ev.NewStatus {
		case "CONFIRMED":
			c.router.HandleBookingConfirmed(ev)
		case "CANCELLED", "REJECTED":
			c.router.HandleBookingDeclined(ev)
		default:
			log.Printf("⚠️ Unhandled booking status %q for booking %s, dropping", ev.NewStatus, ev.BookingID)
		}

	case events.TypeUserRegistered:
		ev, err := events.Decode[events.UserRegistered](body)
		if err != nil {
			log.Printf("🔥 Bad UserRegistered payload, dropping: %v", err)
			return
		}
		c.router.HandleUserRegistered(ev)

	case events.TypeMessageReceived:
		ev, err := events.Decode[events.MessageReceived](body)
		if err != nil {
			log.Printf("🔥 Bad MessageReceived payload, dropping: %v", err)
			return
		}
		c.router.HandleMessageReceived(ev)

	default:
		log.Printf("⚠️ Unknown event type %q, dropping", env.EventType)
	}
}
