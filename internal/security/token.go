package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/ticketflow/internal/model"
)

// SessionLifetime is how long an issued session token stays valid.
const SessionLifetime = 7 * 24 * time.Hour

// Subject is the identity a session token is issued for.
type Subject struct {
	UserID   uint64
	Email    string
	Role     model.Role
	ArtistID *uint64 // artist profile id, only for artist accounts
}

// Claims is the signed payload of a session token.
type Claims struct {
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	ArtistID *uint64    `json:"artist_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() uint64 {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return id
}

// Token is a signed session token and the instant it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a service signing with secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for sub valid for SessionLifetime.
func (s *TokenService) Issue(sub Subject) (Token, error) {
	if sub.UserID == 0 {
		return Token{}, errors.New("security: token subject has no user id")
	}
	if !knownRole(sub.Role) {
		return Token{}, errors.New("security: token subject has no valid role")
	}
	iat := s.now().UTC().Truncate(time.Second)
	exp := iat.Add(SessionLifetime)
	claims := Claims{
		Email:    sub.Email,
		Role:     sub.Role,
		ArtistID: sub.ArtistID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(sub.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Every failure is model.ErrTokenInvalid.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, model.ErrTokenInvalid
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, model.ErrTokenInvalid
	}
	if claims.UserID() == 0 {
		return nil, model.ErrTokenInvalid
	}
	if !knownRole(claims.Role) {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}

func knownRole(r model.Role) bool {
	parsed, ok := model.ParseRole(string(r))
	return ok && parsed == r
}
