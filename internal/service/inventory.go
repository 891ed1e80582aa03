package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/metrics"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/queue"
	"github.com/iliyamo/ticketflow/internal/repository"
)

// MaxUnitsPerRequest bounds a single reservation.
const MaxUnitsPerRequest = 50

// Inventory sells ticket units. Quota and per-user caps are enforced by
// the store's conditional updates, so concurrent requests can never
// oversell.
type Inventory struct {
	tickets TicketStore
	events  Publisher
	log     zerolog.Logger
}

func NewInventory(tickets TicketStore, events Publisher, log zerolog.Logger) *Inventory {
	if events == nil {
		events = NopPublisher{}
	}
	return &Inventory{tickets: tickets, events: events, log: log}
}

// ReserveRequest asks for Quantity units of a ticket type.
type ReserveRequest struct {
	TicketTypeID uint64
	UserID       uint64
	Quantity     uint32
}

// Reserve allocates units or fails with model.ErrQuotaExceeded,
// model.ErrPerUserCapExceeded or model.ErrNotFound. Nothing is
// allocated on failure.
func (inv *Inventory) Reserve(ctx context.Context, req ReserveRequest) (model.Allocation, error) {
	if req.Quantity == 0 || req.Quantity > MaxUnitsPerRequest {
		return model.Allocation{}, fmt.Errorf("%w: quantity must be between 1 and %d", model.ErrInvalidInput, MaxUnitsPerRequest)
	}
	if req.TicketTypeID == 0 || req.UserID == 0 {
		return model.Allocation{}, fmt.Errorf("%w: ticket type and user are required", model.ErrInvalidInput)
	}

	alloc, err := inv.tickets.Reserve(ctx, repository.Reservation{
		TicketTypeID: req.TicketTypeID,
		UserID:       req.UserID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, model.ErrQuotaExceeded):
			outcome = "quota_exceeded"
			inv.log.Warn().Uint64("ticket_type_id", req.TicketTypeID).Uint64("user_id", req.UserID).
				Uint32("quantity", req.Quantity).Msg("reservation rejected: quota exhausted")
		case errors.Is(err, model.ErrPerUserCapExceeded):
			outcome = "per_user_cap_exceeded"
			inv.log.Warn().Uint64("ticket_type_id", req.TicketTypeID).Uint64("user_id", req.UserID).
				Uint32("quantity", req.Quantity).Msg("reservation rejected: per-user cap reached")
		case errors.Is(err, model.ErrNotFound):
			outcome = "not_found"
		}
		metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
		return model.Allocation{}, err
	}

	metrics.ReservationsTotal.WithLabelValues("allocated").Inc()
	metrics.UnitsAllocatedTotal.Add(float64(alloc.Quantity))
	inv.log.Info().Uint64("ticket_type_id", alloc.TicketTypeID).Uint64("user_id", alloc.UserID).
		Uint32("quantity", alloc.Quantity).Int64("total_cents", alloc.TotalCents).Msg("tickets allocated")
	emit(ctx, inv.events, inv.log, queue.TypeTicketsAllocated, queue.TicketsAllocated{
		TicketTypeID: alloc.TicketTypeID,
		UserID:       alloc.UserID,
		Quantity:     alloc.Quantity,
		TotalCents:   alloc.TotalCents,
		Currency:     alloc.Currency,
		Codes:        alloc.Codes,
	})
	return alloc, nil
}

// Tickets lists the units a purchaser holds.
func (inv *Inventory) Tickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return inv.tickets.TicketsByUser(ctx, userID)
}
