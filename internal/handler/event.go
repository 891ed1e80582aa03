package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/service"
)

// Catalog is implemented by service.EventService.
type Catalog interface {
	ListPublic(ctx context.Context, f service.PublicFilter) ([]model.Event, error)
	GetPublic(ctx context.Context, id uint64) (model.Event, error)
	Get(ctx context.Context, id uint64) (model.Event, error)
	ListAll(ctx context.Context) ([]model.Event, error)
	ListForArtist(ctx context.Context, artistID uint64) ([]model.Event, error)
	Create(ctx context.Context, actor service.Actor, in service.EventInput) (model.Event, error)
	Update(ctx context.Context, actor service.Actor, id uint64, in service.EventUpdate) (model.Event, error)
	SetStatus(ctx context.Context, actor service.Actor, id uint64, status string) (model.Event, error)
	Delete(ctx context.Context, actor service.Actor, id uint64) error
	UpdateTicketType(ctx context.Context, actor service.Actor, id uint64, in service.TicketTypeUpdate) (model.TicketType, error)
	DeleteTicketType(ctx context.Context, actor service.Actor, id uint64) error
}

// EventHandler serves the catalog for the public, artists and admins.
type EventHandler struct {
	events Catalog
}

func NewEventHandler(events Catalog) *EventHandler {
	return &EventHandler{events: events}
}

type ticketTypeRequest struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Category   string  `json:"category" validate:"max=60"`
	PriceCents int64   `json:"price_cents" validate:"gte=0"`
	Currency   string  `json:"currency" validate:"omitempty,len=3"`
	Quota      *uint32 `json:"quota" validate:"omitempty,gt=0"`
	MaxPerUser *uint32 `json:"max_per_user" validate:"omitempty,gt=0"`
}

func (r ticketTypeRequest) input() service.TicketTypeInput {
	return service.TicketTypeInput{
		Name:       r.Name,
		Category:   r.Category,
		PriceCents: r.PriceCents,
		Currency:   r.Currency,
		Quota:      r.Quota,
		MaxPerUser: r.MaxPerUser,
	}
}

type createEventRequest struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description string              `json:"description"`
	StartsAt    time.Time           `json:"starts_at" validate:"required"`
	EndsAt      time.Time           `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Status      string              `json:"status" validate:"omitempty,oneof=draft active cancelled completed"`
	ArtistID    *uint64             `json:"artist_id"`
	ArtistIDs   []uint64            `json:"artist_ids"`
	TicketTypes []ticketTypeRequest `json:"ticket_types" validate:"dive"`
}

type updateEventRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	StartsAt    *time.Time           `json:"starts_at"`
	EndsAt      *time.Time           `json:"ends_at"`
	Status      *string              `json:"status"`
	TicketTypes *[]ticketTypeRequest `json:"ticket_types"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active cancelled completed"`
}

type updateTicketTypeRequest struct {
	Name       *string `json:"name"`
	Category   *string `json:"category"`
	PriceCents *int64  `json:"price_cents"`
	Quota      *uint32 `json:"quota"`
	MaxPerUser *uint32 `json:"max_per_user"`
}

// ticketTypeView adds the units still for sale.
type ticketTypeView struct {
	model.TicketType
	Remaining *uint32 `json:"remaining"`
}

type eventView struct {
	model.Event
	TicketTypes []ticketTypeView `json:"ticket_types"`
}

func toTicketTypeView(t model.TicketType) ticketTypeView {
	return ticketTypeView{TicketType: t, Remaining: t.Remaining()}
}

func toEventView(ev model.Event) eventView {
	v := eventView{Event: ev, TicketTypes: make([]ticketTypeView, 0, len(ev.TicketTypes))}
	for _, t := range ev.TicketTypes {
		v.TicketTypes = append(v.TicketTypes, toTicketTypeView(t))
	}
	if v.ArtistIDs == nil {
		v.ArtistIDs = []uint64{}
	}
	return v
}

func toEventViews(evs []model.Event) []eventView {
	out := make([]eventView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEventView(ev))
	}
	return out
}

// ListPublic handles GET /api/events?status=&artist_id=.
func (h *EventHandler) ListPublic(c echo.Context) error {
	f := service.PublicFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("artist_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return invalid(errArtistID)
		}
		f.ArtistID = id
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	evs, err := h.events.ListPublic(ctx, f)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEventViews(evs))
}

// GetPublic handles GET /api/events/:id.
func (h *EventHandler) GetPublic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.events.GetPublic(ctx, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEventView(ev))
}

// Manage handles GET /api/artist/events/:id: the full event, drafts and
// retired ticket types included. Ownership is checked by middleware.
func (h *EventHandler) Manage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.events.Get(ctx, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEventView(ev))
}

// ListOwn handles GET /api/artist/events.
func (h *EventHandler) ListOwn(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if a.ArtistID == nil {
		return respond(c, http.StatusOK, []eventView{})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	evs, err := h.events.ListForArtist(ctx, *a.ArtistID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEventViews(evs))
}

// ListAll handles GET /api/admin/events.
func (h *EventHandler) ListAll(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	evs, err := h.events.ListAll(ctx)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toEventViews(evs))
}

// Create handles POST /api/events.
func (h *EventHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req createEventRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in := service.EventInput{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      req.Status,
		ArtistIDs:   req.ArtistIDs,
	}
	if req.ArtistID != nil {
		in.ArtistIDs = append([]uint64{*req.ArtistID}, in.ArtistIDs...)
	}
	for _, t := range req.TicketTypes {
		in.TicketTypes = append(in.TicketTypes, t.input())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	ev, err := h.events.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusCreated, toEventView(ev), "event created")
}

// Update handles PATCH /api/events/:id. A ticket_types array replaces
// the event's whole active ticket configuration.
func (h *EventHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return model.ErrInvalidInput
	}
	in := service.EventUpdate{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      req.Status,
	}
	if req.TicketTypes != nil {
		types := make([]service.TicketTypeInput, 0, len(*req.TicketTypes))
		for i := range *req.TicketTypes {
			t := (*req.TicketTypes)[i]
			if err := c.Validate(&t); err != nil {
				return invalid(err)
			}
			types = append(types, t.input())
		}
		in.TicketTypes = &types
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	ev, err := h.events.Update(ctx, a, id, in)
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, toEventView(ev), "event updated")
}

// SetStatus handles PATCH /api/admin/events/:id.
func (h *EventHandler) SetStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.events.SetStatus(ctx, a, id, req.Status)
	if err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, toEventView(ev), "event status updated")
}

// Delete handles DELETE /api/events/:id and DELETE /api/admin/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.events.Delete(ctx, a, id); err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, nil, "event deleted")
}

// UpdateTicketType handles PATCH /api/ticket-types/:id.
func (h *EventHandler) UpdateTicketType(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTicketTypeRequest
	if err := c.Bind(&req); err != nil {
		return model.ErrInvalidInput
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tt, err := h.events.UpdateTicketType(ctx, a, id, service.TicketTypeUpdate{
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Quota:      req.Quota,
		MaxPerUser: req.MaxPerUser,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toTicketTypeView(tt))
}

// DeleteTicketType handles DELETE /api/ticket-types/:id.
func (h *EventHandler) DeleteTicketType(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.events.DeleteTicketType(ctx, a, id); err != nil {
		return err
	}
	return respondMsg(c, http.StatusOK, nil, "ticket type deleted")
}
