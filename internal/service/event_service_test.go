package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/model"
)

func u64(v uint64) *uint64 { return &v }

var showTime = time.Date(2026, 11, 20, 21, 0, 0, 0, time.UTC)

func TestEventService_ArtistCreateLinksOwnProfile(t *testing.T) {
	events := newStubEventStore()
	svc := NewEventService(events, newStubTicketStore(), zerolog.Nop())
	actor := Actor{UserID: 3, Role: model.RoleArtist, ArtistID: u64(12)}

	ev, err := svc.Create(context.Background(), actor, EventInput{
		Name:      "Noche",
		StartsAt:  showTime,
		EndsAt:    showTime.Add(3 * time.Hour),
		ArtistIDs: []uint64{99}, // ignored for artists
		TicketTypes: []TicketTypeInput{
			{Name: "General", PriceCents: 45000, Quota: u32(500)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(ev.ArtistIDs) != 1 || ev.ArtistIDs[0] != 12 {
		t.Fatalf("expected event linked to artist 12, got %v", ev.ArtistIDs)
	}
	if ev.Status != model.EventDraft || ev.TicketTypes[0].Currency != model.DefaultCurrency {
		t.Fatalf("defaults not applied: %+v", ev)
	}
}

func TestEventService_CreateValidation(t *testing.T) {
	svc := NewEventService(newStubEventStore(), newStubTicketStore(), zerolog.Nop())
	admin := Actor{UserID: 1, Role: model.RoleAdmin}
	cases := []EventInput{
		{Name: "", StartsAt: showTime, EndsAt: showTime.Add(time.Hour)},
		{Name: "x", StartsAt: showTime, EndsAt: showTime},
		{Name: "x", StartsAt: showTime, EndsAt: showTime.Add(time.Hour), TicketTypes: []TicketTypeInput{{Name: "A", PriceCents: -1}}},
		{Name: "x", StartsAt: showTime, EndsAt: showTime.Add(time.Hour), TicketTypes: []TicketTypeInput{{Name: "A", Quota: u32(0)}}},
	}
	for i, in := range cases {
		if _, err := svc.Create(context.Background(), admin, in); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if _, err := svc.Create(context.Background(), Actor{UserID: 2, Role: model.RoleCustomer}, EventInput{Name: "x", StartsAt: showTime, EndsAt: showTime.Add(time.Hour)}); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("customer create: expected ErrUnauthorized, got %v", err)
	}
}

func TestEventService_PublicViewsHideDraftsAndInactiveTypes(t *testing.T) {
	events := newStubEventStore(
		model.Event{ID: 1, Name: "Live", Status: model.EventActive, TicketTypes: []model.TicketType{
			{ID: 1, Name: "Old", IsActive: false},
			{ID: 2, Name: "New", IsActive: true},
		}},
		model.Event{ID: 2, Name: "Soon", Status: model.EventDraft},
	)
	svc := NewEventService(events, newStubTicketStore(), zerolog.Nop())

	list, err := svc.ListPublic(context.Background(), PublicFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || len(list[0].TicketTypes) != 1 || list[0].TicketTypes[0].ID != 2 {
		t.Fatalf("unexpected public list %+v", list)
	}
	if _, err := svc.GetPublic(context.Background(), 2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("draft must be hidden, got %v", err)
	}
	if _, err := svc.ListPublic(context.Background(), PublicFilter{Status: "draft"}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("draft filter must be rejected, got %v", err)
	}
}

func TestEventService_ReplaceTicketTypesOnUpdate(t *testing.T) {
	events := newStubEventStore(model.Event{ID: 1, Name: "Live", Status: model.EventActive,
		StartsAt: showTime, EndsAt: showTime.Add(time.Hour),
		TicketTypes: []model.TicketType{{ID: 1, Name: "Old", IsActive: true, Sold: 3}}})
	svc := NewEventService(events, newStubTicketStore(), zerolog.Nop())

	types := []TicketTypeInput{{Name: "Fresh", PriceCents: 100}}
	ev, err := svc.Update(context.Background(), Actor{UserID: 1, Role: model.RoleAdmin}, 1, EventUpdate{TicketTypes: &types})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(ev.TicketTypes) != 2 || ev.TicketTypes[0].IsActive || !ev.TicketTypes[1].IsActive {
		t.Fatalf("expected old type deactivated and new one active, got %+v", ev.TicketTypes)
	}
	if ev.TicketTypes[0].Sold != 3 {
		t.Fatalf("sold history lost")
	}
}

func TestEventService_TicketTypeOwnership(t *testing.T) {
	events := newStubEventStore(model.Event{ID: 1, Name: "Live", ArtistIDs: []uint64{12}})
	tickets := newStubTicketStore(
		model.TicketType{ID: 5, EventID: 1, IsActive: true},
		model.TicketType{ID: 6, EventID: 1, IsActive: true, Sold: 2},
	)
	svc := NewEventService(events, tickets, zerolog.Nop())
	ctx := context.Background()

	stranger := Actor{UserID: 4, Role: model.RoleArtist, ArtistID: u64(13)}
	if err := svc.DeleteTicketType(ctx, stranger, 5); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("foreign artist: expected ErrUnauthorized, got %v", err)
	}

	owner := Actor{UserID: 3, Role: model.RoleArtist, ArtistID: u64(12)}
	if err := svc.DeleteTicketType(ctx, owner, 6); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("sold type: expected ErrConflict, got %v", err)
	}
	price := int64(1)
	if _, err := svc.UpdateTicketType(ctx, owner, 6, TicketTypeUpdate{PriceCents: &price}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("price after sale: expected ErrConflict, got %v", err)
	}
	if err := svc.DeleteTicketType(ctx, owner, 5); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestEventService_DeleteWithSalesConflicts(t *testing.T) {
	events := newStubEventStore(model.Event{ID: 1, TicketTypes: []model.TicketType{{ID: 1, Sold: 1}}})
	svc := NewEventService(events, newStubTicketStore(), zerolog.Nop())
	if err := svc.Delete(context.Background(), Actor{UserID: 1, Role: model.RoleAdmin}, 1); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestActor_CanManageEvent(t *testing.T) {
	if !(Actor{Role: model.RoleAdmin}).CanManageEvent(nil) {
		t.Fatalf("admin must manage any event")
	}
	if (Actor{Role: model.RoleArtist}).CanManageEvent([]uint64{1}) {
		t.Fatalf("artist without profile must not manage events")
	}
	if (Actor{Role: model.RoleCustomer, ArtistID: u64(1)}).CanManageEvent([]uint64{1}) {
		t.Fatalf("customer must not manage events")
	}
	if !(Actor{Role: model.RoleArtist, ArtistID: u64(1)}).CanManageEvent([]uint64{2, 1}) {
		t.Fatalf("linked artist must manage event")
	}
}
