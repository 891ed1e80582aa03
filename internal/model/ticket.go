package model

import "time"

// DefaultCurrency is applied to ticket types created without one.
const DefaultCurrency = "MXN"

// TicketType is a sellable class of tickets for one event.
//
// Fields:
//
//	Quota      – maximum sellable units, nil for unlimited.
//	MaxPerUser – maximum units one purchaser may hold, nil for no cap.
//	Sold       – units allocated so far; only ever grows through the
//	             conditional update in the ticket type repository.
//	IsActive   – false once the event's ticket configuration has been
//	             replaced; inactive types keep their sold history.
type TicketType struct {
	ID         uint64  `json:"id"`           // ticket_types.id
	EventID    uint64  `json:"event_id"`     // ticket_types.event_id
	Name       string  `json:"name"`         // ticket_types.name
	Category   string  `json:"category"`     // ticket_types.category
	PriceCents int64   `json:"price_cents"`  // ticket_types.price_cents
	Currency   string  `json:"currency"`     // ticket_types.currency
	Quota      *uint32 `json:"quota"`        // ticket_types.quota (nullable)
	MaxPerUser *uint32 `json:"max_per_user"` // ticket_types.max_per_user (nullable)
	Sold       uint32  `json:"sold"`         // ticket_types.sold
	IsActive   bool    `json:"is_active"`    // ticket_types.is_active
}

// Remaining returns the units still sellable, or nil when the type is
// unlimited.
func (t TicketType) Remaining() *uint32 {
	if t.Quota == nil {
		return nil
	}
	left := uint32(0)
	if *t.Quota > t.Sold {
		left = *t.Quota - t.Sold
	}
	return &left
}

// Ticket is one sold unit.  Rows are written by a successful
// reservation and are the history the deletion guards look at.
type Ticket struct {
	ID           uint64    `json:"id"`
	Code         string    `json:"code"`
	TicketTypeID uint64    `json:"ticket_type_id"`
	UserID       uint64    `json:"user_id"`
	Status       string    `json:"status"`
	PriceCents   int64     `json:"price_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

// Allocation is the result of a successful reservation.
type Allocation struct {
	TicketTypeID uint64   `json:"ticket_type_id"`
	UserID       uint64   `json:"user_id"`
	Quantity     uint32   `json:"quantity"`
	TotalCents   int64    `json:"total_cents"`
	Currency     string   `json:"currency"`
	Codes        []string `json:"codes"`
}
