// Package service holds the authentication, authorization and inventory
// rules. Stores are interfaces so the rules can be tested without MySQL.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/repository"
	"github.com/iliyamo/ticketflow/internal/security"
)

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User, artist *model.Artist) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, p repository.UserPatch) error
	Delete(ctx context.Context, id uint64) error
	FailureCounter
}

// FailureCounter is the part of the credential store the lockout policy
// needs.
type FailureCounter interface {
	IncrementFailedAttempts(ctx context.Context, id uint64) (uint32, error)
	RecordLogin(ctx context.Context, id uint64, at time.Time) error
	ResetFailedAttempts(ctx context.Context, id uint64) error
}

// EventStore is implemented by repository.EventRepo.
type EventStore interface {
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	Get(ctx context.Context, id uint64) (model.Event, error)
	ArtistIDs(ctx context.Context, eventID uint64) ([]uint64, error)
	Create(ctx context.Context, ev *model.Event) error
	Update(ctx context.Context, id uint64, p repository.EventPatch) error
	Delete(ctx context.Context, id uint64) error
}

// TicketStore is implemented by repository.TicketTypeRepo.
type TicketStore interface {
	Get(ctx context.Context, id uint64) (model.TicketType, error)
	Reserve(ctx context.Context, r repository.Reservation) (model.Allocation, error)
	Update(ctx context.Context, id uint64, p repository.TicketTypePatch) error
	Delete(ctx context.Context, id uint64) error
	TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   uint64
	Role     model.Role
	ArtistID *uint64
}

// ActorFromClaims converts verified session claims.
func ActorFromClaims(c *security.Claims) Actor {
	return Actor{UserID: c.UserID(), Role: c.Role, ArtistID: c.ArtistID}
}

// CanManageEvent reports whether the actor may change an event linked to
// the given artists. Admins may change any event.
func (a Actor) CanManageEvent(artistIDs []uint64) bool {
	if a.Role == model.RoleAdmin {
		return true
	}
	if a.Role != model.RoleArtist || a.ArtistID == nil {
		return false
	}
	for _, id := range artistIDs {
		if id == *a.ArtistID {
			return true
		}
	}
	return false
}
