package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/service"
)

// Reserver is implemented by service.Inventory.
type Reserver interface {
	Reserve(ctx context.Context, req service.ReserveRequest) (model.Allocation, error)
	Tickets(ctx context.Context, userID uint64) ([]model.Ticket, error)
}

// CustomerHandler serves purchases under /api/customer.
type CustomerHandler struct {
	inventory Reserver
}

func NewCustomerHandler(inventory Reserver) *CustomerHandler {
	return &CustomerHandler{inventory: inventory}
}

type reserveRequest struct {
	TicketTypeID uint64 `json:"ticket_type_id" validate:"required"`
	Quantity     uint32 `json:"quantity" validate:"required,gte=1,max=50"`
}

// Reserve handles POST /api/customer/reservations.
func (h *CustomerHandler) Reserve(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req reserveRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	alloc, err := h.inventory.Reserve(ctx, service.ReserveRequest{
		TicketTypeID: req.TicketTypeID,
		UserID:       a.UserID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusCreated, alloc, "tickets reserved")
}

// Tickets handles GET /api/customer/tickets.
func (h *CustomerHandler) Tickets(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tickets, err := h.inventory.Tickets(ctx, a.UserID)
	if err != nil {
		return err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return respond(c, http.StatusOK, tickets)
}
