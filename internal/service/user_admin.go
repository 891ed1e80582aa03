package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/metrics"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/repository"
	"github.com/iliyamo/ticketflow/internal/security"
)

// UserAdmin is the admin user-management surface. Every mutation refuses
// to act on the caller's own account.
type UserAdmin struct {
	users   UserStore
	hasher  *security.Hasher
	lockout *Lockout
	log     zerolog.Logger
}

func NewUserAdmin(users UserStore, hasher *security.Hasher, lockout *Lockout, log zerolog.Logger) *UserAdmin {
	return &UserAdmin{users: users, hasher: hasher, lockout: lockout, log: log}
}

// CreateUserInput is an admin-created account. Only artist and staff
// accounts are created this way.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput holds optional changes. Role replaces the current role.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Status   *string
}

// List returns all accounts.
func (a *UserAdmin) List(ctx context.Context) ([]model.User, error) {
	return a.users.List(ctx)
}

// Create adds an artist or staff account.
func (a *UserAdmin) Create(ctx context.Context, actor Actor, in CreateUserInput) (model.User, error) {
	role, ok := model.ParseRole(in.Role)
	if !ok || (role != model.RoleArtist && role != model.RoleStaff) {
		return model.User{}, fmt.Errorf("%w: role must be artist or staff", model.ErrInvalidInput)
	}
	email := model.NormalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return model.User{}, fmt.Errorf("%w: a valid email is required", model.ErrInvalidInput)
	}
	if len(in.Password) < security.MinPasswordLength {
		return model.User{}, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, security.MinPasswordLength)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	digest, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: digest, Role: &role, Status: model.StatusActive}
	var artist *model.Artist
	if role == model.RoleArtist {
		artist = &model.Artist{Name: name, ContactEmail: email}
	}
	if err := a.users.Create(ctx, &u, artist); err != nil {
		return model.User{}, err
	}
	a.log.Info().Uint64("actor_id", actor.UserID).Uint64("user_id", u.ID).Str("role", string(role)).Msg("account created by admin")
	return u, nil
}

// Update changes another user's account.
func (a *UserAdmin) Update(ctx context.Context, actor Actor, targetID uint64, in UpdateUserInput) (model.User, error) {
	if err := a.notSelf(actor, targetID, "update"); err != nil {
		return model.User{}, err
	}
	var p repository.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: name must not be empty", model.ErrInvalidInput)
		}
		p.Name = &name
	}
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if !strings.Contains(email, "@") {
			return model.User{}, fmt.Errorf("%w: a valid email is required", model.ErrInvalidInput)
		}
		p.Email = &email
	}
	if in.Password != nil {
		if len(*in.Password) < security.MinPasswordLength {
			return model.User{}, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, security.MinPasswordLength)
		}
		digest, err := a.hasher.Hash(*in.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = &digest
	}
	if in.Role != nil {
		role, ok := model.ParseRole(*in.Role)
		if !ok {
			return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, *in.Role)
		}
		p.Role = &role
	}
	if in.Status != nil {
		status, ok := model.ParseStatus(*in.Status)
		if !ok {
			return model.User{}, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, *in.Status)
		}
		p.Status = &status
	}
	if p.Empty() {
		return model.User{}, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}
	if err := a.users.Update(ctx, targetID, p); err != nil {
		return model.User{}, err
	}
	a.log.Info().Uint64("actor_id", actor.UserID).Uint64("user_id", targetID).Msg("account updated by admin")
	return a.users.GetByID(ctx, targetID)
}

// Delete removes another user's account.
func (a *UserAdmin) Delete(ctx context.Context, actor Actor, targetID uint64) error {
	if err := a.notSelf(actor, targetID, "delete"); err != nil {
		return err
	}
	if err := a.users.Delete(ctx, targetID); err != nil {
		return err
	}
	a.log.Info().Uint64("actor_id", actor.UserID).Uint64("user_id", targetID).Msg("account deleted by admin")
	return nil
}

// Unlock clears another user's failed-login counter.
func (a *UserAdmin) Unlock(ctx context.Context, actor Actor, targetID uint64) error {
	if err := a.notSelf(actor, targetID, "unlock"); err != nil {
		return err
	}
	if err := a.lockout.Unlock(ctx, targetID); err != nil {
		return err
	}
	a.log.Info().Uint64("actor_id", actor.UserID).Uint64("user_id", targetID).Msg("account unlocked by admin")
	return nil
}

func (a *UserAdmin) notSelf(actor Actor, targetID uint64, op string) error {
	if actor.UserID != targetID {
		return nil
	}
	metrics.AuthzDenialsTotal.WithLabelValues("self_modification").Inc()
	a.log.Warn().Uint64("user_id", actor.UserID).Str("operation", op).Msg("self-modification denied")
	return model.ErrSelfModificationDenied
}
