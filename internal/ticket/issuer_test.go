package ticket

import (
	"bytes"
	"regexp"
	"strconv"
	"testing"
	"time"
)

var ticketNumberPattern = regexp.MustCompile(`^TK-[0-9a-z]+[0-9a-f]{8}$`)

func TestIssue(t *testing.T) {
	signer := newTestSigner(t)
	issuer := NewIssuer(signer)

	issued, err := issuer.Issue("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if !ticketNumberPattern.MatchString(issued.TicketNumber) {
		t.Fatalf("Unexpected ticket number format: %q", issued.TicketNumber)
	}

	p, err := signer.Authenticate(issued.PayloadText)
	if err != nil {
		t.Fatalf("Issued payload does not authenticate: %v", err)
	}
	if p.RegistrationID != "r1" || p.EventID != "e1" || p.UserID != "u1" {
		t.Fatalf("Issued payload carries wrong fields: %+v", p)
	}

	if len(issued.RenderedCode) == 0 {
		t.Fatal("Expected a rendered code image")
	}
	if !bytes.HasPrefix(issued.RenderedCode, []byte("\x89PNG")) {
		t.Fatal("Rendered code is not a PNG")
	}
}

func TestNewTicketNumber(t *testing.T) {
	issuer := NewIssuer(newTestSigner(t))

	fixed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := issuer.NewTicketNumber()
		if !ticketNumberPattern.MatchString(n) {
			t.Fatalf("Unexpected ticket number format: %q", n)
		}
		if seen[n] {
			t.Fatalf("Duplicate ticket number within a single run: %q", n)
		}
		seen[n] = true
	}

	// The timestamp component is the issue time in base 36.
	n := issuer.NewTicketNumber()
	wantTS := strconv.FormatInt(fixed.UnixMilli(), 36)
	if got := n[3 : len(n)-8]; got != wantTS {
		t.Fatalf("Expected timestamp component %q, got %q", wantTS, got)
	}
}
