package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/repository"
)

// EventService manages the catalog: events, their artists and ticket
// type configuration.
type EventService struct {
	events  EventStore
	tickets TicketStore
	log     zerolog.Logger
}

func NewEventService(events EventStore, tickets TicketStore, log zerolog.Logger) *EventService {
	return &EventService{events: events, tickets: tickets, log: log}
}

// TicketTypeInput configures one ticket type.
type TicketTypeInput struct {
	Name       string
	Category   string
	PriceCents int64
	Currency   string
	Quota      *uint32
	MaxPerUser *uint32
}

// EventInput creates an event.
type EventInput struct {
	Name        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	Status      string
	ArtistIDs   []uint64 // honoured for admins only
	TicketTypes []TicketTypeInput
}

// EventUpdate holds optional changes. A non-nil TicketTypes replaces the
// whole active ticket configuration.
type EventUpdate struct {
	Name        *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Status      *string
	TicketTypes *[]TicketTypeInput
}

// TicketTypeUpdate holds optional changes to one ticket type.
type TicketTypeUpdate struct {
	Name       *string
	Category   *string
	PriceCents *int64
	Quota      *uint32
	MaxPerUser *uint32
}

// PublicFilter narrows the public listing.
type PublicFilter struct {
	Status   string
	ArtistID uint64
}

// ListPublic returns events visible to anyone: active ones unless another
// non-draft status is asked for, each with its active ticket types only.
func (s *EventService) ListPublic(ctx context.Context, f PublicFilter) ([]model.Event, error) {
	status := model.EventActive
	if f.Status != "" {
		st, ok := model.ParseEventStatus(f.Status)
		if !ok || st == model.EventDraft {
			return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, f.Status)
		}
		status = st
	}
	evs, err := s.events.List(ctx, repository.EventFilter{Status: status, ArtistID: f.ArtistID})
	if err != nil {
		return nil, err
	}
	for i := range evs {
		evs[i].TicketTypes = activeOnly(evs[i].TicketTypes)
	}
	return evs, nil
}

// GetPublic returns a non-draft event with its active ticket types.
func (s *EventService) GetPublic(ctx context.Context, id uint64) (model.Event, error) {
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if ev.Status == model.EventDraft {
		return model.Event{}, model.ErrNotFound
	}
	ev.TicketTypes = activeOnly(ev.TicketTypes)
	return ev, nil
}

// Get returns an event with every ticket type, for its managers.
func (s *EventService) Get(ctx context.Context, id uint64) (model.Event, error) {
	return s.events.Get(ctx, id)
}

// ListAll returns every event in any status, for admins.
func (s *EventService) ListAll(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx, repository.EventFilter{})
}

// ListForArtist returns the events an artist is linked to, any status.
func (s *EventService) ListForArtist(ctx context.Context, artistID uint64) ([]model.Event, error) {
	return s.events.List(ctx, repository.EventFilter{ArtistID: artistID})
}

// Create adds an event. Artists are always linked as its owner; admins
// choose the linked artists.
func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (model.Event, error) {
	ev := model.Event{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Status:      model.EventDraft,
	}
	if ev.Name == "" {
		return model.Event{}, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	if err := checkSchedule(ev.StartsAt, ev.EndsAt); err != nil {
		return model.Event{}, err
	}
	if in.Status != "" {
		st, ok := model.ParseEventStatus(in.Status)
		if !ok {
			return model.Event{}, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, in.Status)
		}
		ev.Status = st
	}
	switch actor.Role {
	case model.RoleAdmin:
		ev.ArtistIDs = in.ArtistIDs
	case model.RoleArtist:
		if actor.ArtistID == nil {
			return model.Event{}, model.ErrUnauthorized
		}
		ev.ArtistIDs = []uint64{*actor.ArtistID}
	default:
		return model.Event{}, model.ErrUnauthorized
	}
	types, err := buildTicketTypes(in.TicketTypes)
	if err != nil {
		return model.Event{}, err
	}
	ev.TicketTypes = types

	if err := s.events.Create(ctx, &ev); err != nil {
		return model.Event{}, err
	}
	s.log.Info().Uint64("actor_id", actor.UserID).Uint64("event_id", ev.ID).Msg("event created")
	return ev, nil
}

// Update changes an event and optionally replaces its ticket types.
// Ownership is checked by the caller's route middleware.
func (s *EventService) Update(ctx context.Context, actor Actor, id uint64, in EventUpdate) (model.Event, error) {
	var p repository.EventPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.Event{}, fmt.Errorf("%w: name must not be empty", model.ErrInvalidInput)
		}
		p.Name = &name
	}
	p.Description = in.Description
	if in.StartsAt != nil || in.EndsAt != nil {
		cur, err := s.events.Get(ctx, id)
		if err != nil {
			return model.Event{}, err
		}
		start, end := cur.StartsAt, cur.EndsAt
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		if err := checkSchedule(start, end); err != nil {
			return model.Event{}, err
		}
		p.StartsAt, p.EndsAt = in.StartsAt, in.EndsAt
	}
	if in.Status != nil {
		st, ok := model.ParseEventStatus(*in.Status)
		if !ok {
			return model.Event{}, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, *in.Status)
		}
		p.Status = &st
	}

	if in.TicketTypes != nil {
		types, err := buildTicketTypes(*in.TicketTypes)
		if err != nil {
			return model.Event{}, err
		}
		p.TicketTypes = &types
	}

	if err := s.events.Update(ctx, id, p); err != nil {
		return model.Event{}, err
	}
	s.log.Info().Uint64("actor_id", actor.UserID).Uint64("event_id", id).Bool("ticket_types_replaced", in.TicketTypes != nil).Msg("event updated")
	return s.events.Get(ctx, id)
}

// SetStatus moves an event to another publication state.
func (s *EventService) SetStatus(ctx context.Context, actor Actor, id uint64, status string) (model.Event, error) {
	return s.Update(ctx, actor, id, EventUpdate{Status: &status})
}

// Delete removes an event that has sold nothing.
func (s *EventService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("actor_id", actor.UserID).Uint64("event_id", id).Msg("event deleted")
	return nil
}

// UpdateTicketType changes one ticket type. Price and quota are frozen
// after the first sale.
func (s *EventService) UpdateTicketType(ctx context.Context, actor Actor, id uint64, in TicketTypeUpdate) (model.TicketType, error) {
	if err := s.authorizeTicketType(ctx, actor, id); err != nil {
		return model.TicketType{}, err
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return model.TicketType{}, fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	if (in.Quota != nil && *in.Quota == 0) || (in.MaxPerUser != nil && *in.MaxPerUser == 0) {
		return model.TicketType{}, fmt.Errorf("%w: quota and max_per_user must be positive", model.ErrInvalidInput)
	}
	err := s.tickets.Update(ctx, id, repository.TicketTypePatch{
		Name:       in.Name,
		Category:   in.Category,
		PriceCents: in.PriceCents,
		Quota:      in.Quota,
		MaxPerUser: in.MaxPerUser,
	})
	if err != nil {
		return model.TicketType{}, err
	}
	return s.tickets.Get(ctx, id)
}

// DeleteTicketType hard-deletes a ticket type that never sold.
func (s *EventService) DeleteTicketType(ctx context.Context, actor Actor, id uint64) error {
	if err := s.authorizeTicketType(ctx, actor, id); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("actor_id", actor.UserID).Uint64("ticket_type_id", id).Msg("ticket type deleted")
	return nil
}

func (s *EventService) authorizeTicketType(ctx context.Context, actor Actor, id uint64) error {
	tt, err := s.tickets.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role == model.RoleAdmin {
		return nil
	}
	artists, err := s.events.ArtistIDs(ctx, tt.EventID)
	if err != nil {
		return err
	}
	if !actor.CanManageEvent(artists) {
		s.log.Warn().Uint64("user_id", actor.UserID).Uint64("ticket_type_id", id).Msg("ticket type ownership denied")
		return model.ErrUnauthorized
	}
	return nil
}

func checkSchedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: starts_at and ends_at are required", model.ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: ends_at must be after starts_at", model.ErrInvalidInput)
	}
	return nil
}

func buildTicketTypes(in []TicketTypeInput) ([]model.TicketType, error) {
	out := make([]model.TicketType, 0, len(in))
	for _, t := range in {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: ticket type name is required", model.ErrInvalidInput)
		}
		if t.PriceCents < 0 {
			return nil, fmt.Errorf("%w: ticket type %q has a negative price", model.ErrInvalidInput, name)
		}
		if (t.Quota != nil && *t.Quota == 0) || (t.MaxPerUser != nil && *t.MaxPerUser == 0) {
			return nil, fmt.Errorf("%w: ticket type %q needs a positive quota and max_per_user", model.ErrInvalidInput, name)
		}
		currency := strings.ToUpper(strings.TrimSpace(t.Currency))
		if currency == "" {
			currency = model.DefaultCurrency
		}
		out = append(out, model.TicketType{
			Name:       name,
			Category:   strings.TrimSpace(t.Category),
			PriceCents: t.PriceCents,
			Currency:   currency,
			Quota:      t.Quota,
			MaxPerUser: t.MaxPerUser,
			IsActive:   true,
		})
	}
	return out, nil
}

func activeOnly(types []model.TicketType) []model.TicketType {
	out := make([]model.TicketType, 0, len(types))
	for _, t := range types {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}
