package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/service"
)

var _ service.EventPublisher = (*Publisher)(nil)

// Publisher sends domain events to durable queues on the default exchange.
// The connection is opened on first use and reopened after a failure, so a
// broker outage only costs the events published while it lasts.
type Publisher struct {
	url          string
	bookingQueue string
	contactQueue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(cfg config.QueueConfig) *Publisher {
	return &Publisher{url: cfg.URL, bookingQueue: cfg.BookingQueue, contactQueue: cfg.ContactQueue}
}

func (p *Publisher) PublishBookingCreated(ctx context.Context, b model.Booking, slot model.ParkingSlot) error {
	return p.publish(ctx, p.bookingQueue, NewBookingCreatedEvent(b, slot))
}

func (p *Publisher) PublishContactCreated(ctx context.Context, c model.Contact) error {
	return p.publish(ctx, p.contactQueue, NewContactCreatedEvent(c))
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queue, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.reset()
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	logging.Debug(ctx).Str("queue", queue).Str("message_id", msg.MessageId).Msg("event published")
	return nil
}

// channel returns the open channel, dialing if needed.  Caller holds p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
