// Package security implements password hashing and session tokens.
package security

import (
	"encoding/base64"
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ticketflow/internal/model"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 6

// bcrypt digests are "$2a$" + two cost digits + "$" + 22 salt chars + 31
// hash chars in bcrypt's own base64 alphabet.
const (
	digestLen = 60
	saltChars = 22
)

var bcryptEncoding = base64.NewEncoding("./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789").
	WithPadding(base64.NoPadding).
	Strict()

// Hasher produces and checks bcrypt password digests.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost for new digests. Out of range
// costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest. A wrong password is
// (false, nil). A digest that cannot be parsed is (false,
// model.ErrCorruptCredential) so callers can tell stored-data problems from
// bad input.
func (h *Hasher) Verify(plain, digest string) (bool, error) {
	if !h.wellFormed(digest) {
		return false, model.ErrCorruptCredential
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, model.ErrCorruptCredential
	}
}

// wellFormed rejects digests bcrypt would still accept but that are not
// canonical, such as unknown minor versions or non-zero padding bits. Any
// cost bcrypt supports is accepted, whatever cost new digests use.
func (h *Hasher) wellFormed(d string) bool {
	if len(d) != digestLen || d[0] != '$' || d[1] != '2' || d[3] != '$' || d[6] != '$' {
		return false
	}
	switch d[2] {
	case 'a', 'b', 'y':
	default:
		return false
	}
	if d[4] < '0' || d[4] > '9' || d[5] < '0' || d[5] > '9' {
		return false
	}
	cost, _ := strconv.Atoi(d[4:6])
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return false
	}
	if _, err := bcryptEncoding.DecodeString(d[7 : 7+saltChars]); err != nil {
		return false
	}
	if _, err := bcryptEncoding.DecodeString(d[7+saltChars:]); err != nil {
		return false
	}
	return true
}
