package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/metrics"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/queue"
	"github.com/iliyamo/ticketflow/internal/security"
)

// AuthService registers accounts and turns credentials into sessions.
type AuthService struct {
	users   UserStore
	hasher  *security.Hasher
	tokens  *security.TokenService
	lockout *Lockout
	events  Publisher
	log     zerolog.Logger

	// digest compared against when the email is unknown, so both
	// failure paths cost one bcrypt comparison
	dummyDigest string
}

func NewAuthService(users UserStore, hasher *security.Hasher, tokens *security.TokenService, lockout *Lockout, events Publisher, log zerolog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash("ticketflow-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		lockout:     lockout,
		events:      events,
		log:         log,
		dummyDigest: dummy,
	}, nil
}

// Session is an authenticated user and their signed token.
type Session struct {
	User  model.User
	Token security.Token
}

// RegisterInput is a public sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // customer (default) or artist
}

// Register creates an active account and signs the user in. Only
// customer and artist accounts can be self-registered; artists get a
// profile in the same transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: a valid email is required", model.ErrInvalidInput)
	}
	if len(in.Password) < security.MinPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, security.MinPasswordLength)
	}
	role := model.RoleCustomer
	if strings.TrimSpace(in.Role) != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok || (r != model.RoleCustomer && r != model.RoleArtist) {
			return Session{}, fmt.Errorf("%w: role must be customer or artist", model.ErrInvalidInput)
		}
		role = r
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: digest, Role: &role, Status: model.StatusActive}
	var artist *model.Artist
	if role == model.RoleArtist {
		artist = &model.Artist{Name: name, ContactEmail: email}
	}
	if err := s.users.Create(ctx, &u, artist); err != nil {
		return Session{}, err
	}

	tok, err := s.issue(u)
	if err != nil {
		return Session{}, err
	}
	s.log.Info().Uint64("user_id", u.ID).Str("role", string(role)).Msg("account registered")
	return Session{User: u, Token: tok}, nil
}

// Login checks credentials against the lockout policy and issues a
// session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return Session{}, model.ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return Session{}, model.ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return Session{}, fmt.Errorf("load credential: %w", err)
	}

	if s.lockout.IsLocked(u) {
		metrics.LoginTotal.WithLabelValues("locked").Inc()
		s.log.Warn().Uint64("user_id", u.ID).Str("email", u.Email).Msg("login blocked: account locked")
		return Session{}, model.ErrLockedAccount
	}
	if u.Status != model.StatusActive {
		metrics.LoginTotal.WithLabelValues("inactive").Inc()
		s.log.Warn().Uint64("user_id", u.ID).Str("status", string(u.Status)).Msg("login blocked: account not active")
		return Session{}, model.ErrInactiveAccount
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Uint64("user_id", u.ID).Msg("stored password digest is unreadable")
		return Session{}, err
	}
	if !ok {
		return Session{}, s.failed(ctx, u)
	}

	if err := s.lockout.RecordSuccess(ctx, u.ID); err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return Session{}, fmt.Errorf("record login: %w", err)
	}
	u.FailedAttempts = 0
	tok, err := s.issue(u)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return Session{}, err
	}
	metrics.LoginTotal.WithLabelValues("success").Inc()
	return Session{User: u, Token: tok}, nil
}

func (s *AuthService) failed(ctx context.Context, u model.User) error {
	count, locked, err := s.lockout.RecordFailure(ctx, u.ID)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record failed login: %w", err)
	}
	if !locked {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		return model.ErrInvalidCredentials
	}
	metrics.LoginTotal.WithLabelValues("locked").Inc()
	if count == s.lockout.Threshold() {
		metrics.LockoutsTotal.Inc()
		s.log.Warn().Uint64("user_id", u.ID).Str("email", u.Email).Uint32("failed_attempts", count).Msg("account locked")
		emit(ctx, s.events, s.log, queue.TypeAccountLocked, queue.AccountLocked{
			UserID: u.ID, Email: u.Email, FailedAttempts: count,
		})
	}
	return model.ErrLockedAccount
}

// Me reloads the account behind a session.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) issue(u model.User) (security.Token, error) {
	sub := security.Subject{UserID: u.ID, Email: u.Email, Role: u.EffectiveRole()}
	if sub.Role == model.RoleArtist {
		sub.ArtistID = u.ArtistID
	}
	tok, err := s.tokens.Issue(sub)
	if err != nil {
		return security.Token{}, fmt.Errorf("issue session: %w", err)
	}
	return tok, nil
}
