package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/queue"
)

// Publisher delivers domain events. Failures never fail the operation
// that produced the event; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Envelope) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Envelope) error { return nil }

// QueuePublisher publishes persistent JSON messages to a durable RabbitMQ
// queue through the default exchange. The connection is opened on first
// use and reopened after any publish error.
type QueuePublisher struct {
	url   string
	queue string
	log   zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueuePublisher(url, queueName string, log zerolog.Logger) *QueuePublisher {
	return &QueuePublisher{url: url, queue: queueName, log: log}
}

// Publish sends ev. Messages are marked persistent.
func (p *QueuePublisher) Publish(ctx context.Context, ev queue.Envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *QueuePublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.resetLocked()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *QueuePublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

// emit wraps payload in an envelope and publishes it with a bounded,
// request-independent deadline. Errors are logged only.
func emit(ctx context.Context, pub Publisher, log zerolog.Logger, typ string, payload any) {
	if pub == nil {
		return
	}
	env, err := queue.NewEnvelope(typ, time.Now(), payload)
	if err != nil {
		log.Warn().Err(err).Str("event", typ).Msg("encode domain event")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, env); err != nil {
		log.Warn().Err(err).Str("event", typ).Msg("publish domain event")
	}
}
