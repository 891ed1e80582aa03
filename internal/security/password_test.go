package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ticketflow/internal/model"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "pass123" {
		t.Fatalf("digest must not equal the plain password")
	}

	ok, err := h.Verify("pass123", digest)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("pass124", digest)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got ok=%v err=%v", ok, err)
	}
}

func TestHasher_SaltedDigestsDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestHasher_CorruptDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, d := range []string{"", "plain-text", "$2a$04$short", "$9z$04$abcdefghijklmnopqrstuv"} {
		ok, err := h.Verify("whatever", d)
		if ok || !errors.Is(err, model.ErrCorruptCredential) {
			t.Errorf("Verify(%q) = %v, %v; want false, ErrCorruptCredential", d, ok, err)
		}
	}
}

func TestHasher_SingleBitMutationsNeverVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest, err := h.Hash("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	for i := 0; i < len(digest); i++ {
		// Flipping the cost digits yields a valid digest at a much higher
		// work factor; it cannot match and would only slow the test down.
		if i == 4 || i == 5 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(digest)
			mutated[i] ^= 1 << bit
			if ok, _ := h.Verify("pass123", string(mutated)); ok {
				t.Fatalf("mutation at byte %d bit %d still verifies", i, bit)
			}
		}
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if h := NewHasher(0); h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
	if h := NewHasher(99); h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}

func TestHasher_VerifiesDigestsAboveConfiguredCost(t *testing.T) {
	digest, err := NewHasher(13).Hash("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	h := NewHasher(10)
	ok, err := h.Verify("pass123", digest)
	if err != nil || !ok {
		t.Fatalf("cost-13 digest with cost-10 hasher: ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("pass124", digest)
	if err != nil || ok {
		t.Fatalf("expected plain mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHasher_RejectsCostOutsideBcryptRange(t *testing.T) {
	digest, err := NewHasher(bcrypt.MinCost).Hash("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h := NewHasher(bcrypt.MinCost)
	for _, cost := range []string{"03", "32", "99"} {
		d := digest[:4] + cost + digest[6:]
		if ok, err := h.Verify("pass123", d); ok || !errors.Is(err, model.ErrCorruptCredential) {
			t.Errorf("cost %s: got ok=%v err=%v, want ErrCorruptCredential", cost, ok, err)
		}
	}
}
