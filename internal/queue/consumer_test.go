package queue

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestConsumer(buf *bytes.Buffer) *AuditConsumer {
	return &AuditConsumer{Audit: zerolog.New(buf), Log: zerolog.Nop()}
}

func TestHandle_TicketsAllocated(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsumer(&buf)

	env, err := NewEnvelope(TypeTicketsAllocated, time.Now(), TicketsAllocated{
		TicketTypeID: 3, UserID: 9, Quantity: 2, TotalCents: 1000, Currency: "MXN", Codes: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	body, _ := json.Marshal(env)
	if err := c.Handle(body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit line is not JSON: %q", buf.String())
	}
	if line["event"] != TypeTicketsAllocated || line["user_id"] != float64(9) || line["quantity"] != float64(2) {
		t.Fatalf("unexpected audit line %v", line)
	}
}

func TestHandle_AccountLocked(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsumer(&buf)

	env, _ := NewEnvelope(TypeAccountLocked, time.Now(), AccountLocked{UserID: 4, Email: "x@y.mx", FailedAttempts: 5})
	body, _ := json.Marshal(env)
	if err := c.Handle(body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"failed_attempts":5`) {
		t.Fatalf("unexpected audit line %s", buf.String())
	}
}

func TestHandle_RejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	c := newTestConsumer(&buf)

	if err := c.Handle([]byte("{")); err == nil {
		t.Fatalf("expected error for malformed body")
	}
	if err := c.Handle([]byte(`{"type":"nope","payload":{}}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be audited, got %s", buf.String())
	}
}

func TestOpenAuditLog_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	log, closer, err := OpenAuditLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	log.Info().Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
