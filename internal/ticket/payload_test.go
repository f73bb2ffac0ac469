package ticket

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andhikafr19/eo-app/internal/domain"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", DefaultPayloadTTL)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	return s
}

func TestNewSigner_EmptySecret(t *testing.T) {
	if _, err := NewSigner("", DefaultPayloadTTL); err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestSignAuthenticate_RoundTrip(t *testing.T) {
	s := newTestSigner(t)

	payloadText, err := s.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	p, err := s.Authenticate(payloadText)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if p.RegistrationID != "r1" || p.EventID != "e1" || p.UserID != "u1" {
		t.Fatalf("Fields changed in round trip: %+v", p)
	}
	if p.Type != PayloadType {
		t.Fatalf("Expected type %q, got %q", PayloadType, p.Type)
	}
	if _, err := p.IssuedAt(); err != nil {
		t.Fatalf("Timestamp not parseable: %v", err)
	}
}

func TestAuthenticate_Tampered(t *testing.T) {
	s := newTestSigner(t)

	payloadText, err := s.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	mutations := []struct {
		name string
		old  string
		new  string
	}{
		{"registration id", `"registrationId":"r1"`, `"registrationId":"r2"`},
		{"event id", `"eventId":"e1"`, `"eventId":"e2"`},
		{"user id", `"userId":"u1"`, `"userId":"u2"`},
		{"payload type", `"type":"EVENT_TICKET"`, `"type":"EVENT_TICKEU"`},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			mutated := strings.Replace(payloadText, tt.old, tt.new, 1)
			if mutated == payloadText {
				t.Fatalf("Mutation did not apply: %s", tt.old)
			}
			if _, err := s.Authenticate(mutated); !errors.Is(err, domain.ErrTamperedPayload) {
				t.Fatalf("Expected ErrTamperedPayload, got %v", err)
			}
		})
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	s := newTestSigner(t)
	other, err := NewSigner("other-secret", DefaultPayloadTTL)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	payloadText, err := s.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := other.Authenticate(payloadText); !errors.Is(err, domain.ErrTamperedPayload) {
		t.Fatalf("Expected ErrTamperedPayload, got %v", err)
	}
}

func TestAuthenticate_Expiry(t *testing.T) {
	s := newTestSigner(t)

	issuedAt := time.Now()
	s.now = func() time.Time { return issuedAt }

	payloadText, err := s.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// Sign truncates the timestamp to whole seconds, so anchor the clock
	// on the encoded value.
	p, err := s.Authenticate(payloadText)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	encoded, err := p.IssuedAt()
	if err != nil {
		t.Fatalf("IssuedAt failed: %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"fresh", encoded.Add(time.Minute), nil},
		{"at boundary still valid", encoded.Add(24 * time.Hour), nil},
		{"just past boundary", encoded.Add(24*time.Hour + time.Second), domain.ErrExpiredPayload},
		{"well past boundary", encoded.Add(48 * time.Hour), domain.ErrExpiredPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = func() time.Time { return tt.now }
			_, err := s.Authenticate(payloadText)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthenticate_Malformed(t *testing.T) {
	s := newTestSigner(t)

	tests := []struct {
		name string
		text string
	}{
		{"not json", "definitely not json"},
		{"empty", ""},
		{"missing registration id", `{"eventId":"e1","userId":"u1","timestamp":"2026-01-01T00:00:00Z","type":"EVENT_TICKET","hash":"00"}`},
		{"missing event id", `{"registrationId":"r1","userId":"u1","timestamp":"2026-01-01T00:00:00Z","type":"EVENT_TICKET","hash":"00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Authenticate(tt.text); !errors.Is(err, domain.ErrMalformedPayload) {
				t.Fatalf("Expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestAuthenticate_UnparseableTimestamp(t *testing.T) {
	s := newTestSigner(t)

	payloadText, err := s.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	p, err := s.Authenticate(payloadText)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	// Re-sign the same fields with a garbage timestamp so the signature
	// is valid but the timestamp is not a time.
	mangled := Payload{
		RegistrationID: p.RegistrationID,
		EventID:        p.EventID,
		UserID:         p.UserID,
		Timestamp:      "not-a-time",
		Type:           p.Type,
	}
	mangled.Hash = s.mac(payloadFields{
		RegistrationID: mangled.RegistrationID,
		EventID:        mangled.EventID,
		UserID:         mangled.UserID,
		Timestamp:      mangled.Timestamp,
		Type:           mangled.Type,
	})

	text := `{"registrationId":"` + mangled.RegistrationID + `","eventId":"` + mangled.EventID +
		`","userId":"` + mangled.UserID + `","timestamp":"not-a-time","type":"` + mangled.Type +
		`","hash":"` + mangled.Hash + `"}`

	if _, err := s.Authenticate(text); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("Expected ErrMalformedPayload, got %v", err)
	}
}
