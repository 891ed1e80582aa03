// Package queue defines the domain events exchanged over RabbitMQ and the
// audit consumer that records them.
package queue

import (
	"encoding/json"
	"time"
)

// Event types carried in Envelope.Type.
const (
	TypeTicketsAllocated = "tickets.allocated"
	TypeAccountLocked    = "account.locked"
)

// Envelope wraps every message on the events queue.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(typ string, at time.Time, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, OccurredAt: at.UTC(), Payload: body}, nil
}

// TicketsAllocated is published after a reservation commits.
type TicketsAllocated struct {
	TicketTypeID uint64   `json:"ticket_type_id"`
	UserID       uint64   `json:"user_id"`
	Quantity     uint32   `json:"quantity"`
	TotalCents   int64    `json:"total_cents"`
	Currency     string   `json:"currency"`
	Codes        []string `json:"codes"`
}

// AccountLocked is published when a failed login reaches the lockout
// threshold.
type AccountLocked struct {
	UserID         uint64 `json:"user_id"`
	Email          string `json:"email"`
	FailedAttempts uint32 `json:"failed_attempts"`
}
