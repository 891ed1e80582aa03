package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AuditConsumer drains the events queue and writes one audit line per
// event.
type AuditConsumer struct {
	URL   string
	Queue string
	Audit zerolog.Logger // destination of audit lines
	Log   zerolog.Logger // operational logging
}

// OpenAuditLog opens (creating if needed) an append-only audit file and
// returns a logger writing JSON lines to it.
func OpenAuditLog(path string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open audit log: %w", err)
	}
	return zerolog.New(f).With().Timestamp().Logger(), f, nil
}

// Run connects, consumes and reconnects with backoff until ctx is done.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("audit consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn().Err(err).Msg("audit consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn().Err(err).Msg("audit consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.Log.Error().Err(err).Msg("audit consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message and writes its audit line.
func (c *AuditConsumer) Handle(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	switch env.Type {
	case TypeTicketsAllocated:
		var ev TicketsAllocated
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		c.Audit.Info().
			Str("event", env.Type).
			Time("occurred_at", env.OccurredAt).
			Uint64("user_id", ev.UserID).
			Uint64("ticket_type_id", ev.TicketTypeID).
			Uint32("quantity", ev.Quantity).
			Int64("total_cents", ev.TotalCents).
			Str("currency", ev.Currency).
			Strs("codes", ev.Codes).
			Msg("tickets allocated")
	case TypeAccountLocked:
		var ev AccountLocked
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		c.Audit.Warn().
			Str("event", env.Type).
			Time("occurred_at", env.OccurredAt).
			Uint64("user_id", ev.UserID).
			Str("email", ev.Email).
			Uint32("failed_attempts", ev.FailedAttempts).
			Msg("account locked")
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
	return nil
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
