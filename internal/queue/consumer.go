package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/logging"
)

// Notifier is told about consumed events.  Implementations must tolerate
// being called more than once for the same event.
type Notifier interface {
	BookingCreated(ctx context.Context, ev BookingCreatedEvent) error
	ContactCreated(ctx context.Context, ev ContactCreatedEvent) error
}

// Consumer reads the booking and contact queues.  Each booking is appended
// to <BookingLogDir>/booking.log as one line and then handed to the
// notifier, as is each contact.
type Consumer struct {
	cfg      config.QueueConfig
	notifier Notifier

	logMu sync.Mutex
}

// NewConsumer builds a consumer.  notifier may be nil.
func NewConsumer(cfg config.QueueConfig, notifier Notifier) *Consumer {
	return &Consumer{cfg: cfg, notifier: notifier}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting with
// exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			logging.Warn(ctx).Err(err).Dur("retry_in", backoff).Msg("booking-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn(ctx).Err(err).Msg("booking-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.ConsumerPrefetch, 0, false); err != nil {
		logging.Warn(ctx).Err(err).Msg("booking-consumer: set QoS failed")
	}

	queues := []string{c.cfg.BookingQueue, c.cfg.ContactQueue}
	streams := make([]<-chan amqp.Delivery, len(queues))
	for i, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		if streams[i], err = ch.Consume(q, "", false, false, false, false, nil); err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
	}
	logging.Info(ctx).Strs("queues", queues).Msg("booking-consumer: consuming")

	bookings, contacts := streams[0], streams[1]
	for {
		var (
			d  amqp.Delivery
			ok bool
			q  string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-bookings:
			q = c.cfg.BookingQueue
		case d, ok = <-contacts:
			q = c.cfg.ContactQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.Handle(ctx, q, d.Body); err != nil {
			logging.Error(ctx).Err(err).Str("queue", q).Str("message_id", d.MessageId).Msg("booking-consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

// Handle processes one message body from queue.  A returned error means the
// message is malformed or could not be recorded; notification failures are
// only logged.
func (c *Consumer) Handle(ctx context.Context, queue string, body []byte) error {
	switch queue {
	case c.cfg.BookingQueue:
		var ev BookingCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if err := c.appendBookingLine(ev); err != nil {
			return err
		}
		if c.notifier != nil {
			if err := c.notifier.BookingCreated(ctx, ev); err != nil {
				logging.Warn(ctx).Err(err).Uint64("booking_id", ev.BookingID).Msg("booking notification failed")
			}
		}
	case c.cfg.ContactQueue:
		var ev ContactCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if c.notifier != nil {
			if err := c.notifier.ContactCreated(ctx, ev); err != nil {
				logging.Warn(ctx).Err(err).Uint64("contact_id", ev.ContactID).Msg("contact notification failed")
			}
		}
	default:
		return fmt.Errorf("unexpected queue %q", queue)
	}
	return nil
}

func (c *Consumer) appendBookingLine(ev BookingCreatedEvent) error {
	c.logMu.Lock()
	defer c.logMu.Unlock()

	if err := os.MkdirAll(c.cfg.BookingLogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.cfg.BookingLogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.cfg.BookingLogDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(BookingLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// BookingLine renders the single-line booking.log record, newline included.
func BookingLine(ev BookingCreatedEvent) string {
	total := ev.TotalAmount
	if total == "" {
		total = "n/a"
	}
	return fmt.Sprintf("[%s] Booking created | booking_id=%d | slot_id=%d | spot=%q | level=%q | type=%s | start=%s | hours=%d | plate=%q | total=%s\n",
		ev.CreatedAt, ev.BookingID, ev.SlotID, ev.SpotName, ev.Level, ev.SlotType, ev.StartTime, ev.DurationHours, ev.LicensePlate, total)
}
