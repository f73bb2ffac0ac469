package ticket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/andhikafr19/eo-app/internal/domain"
)

// PayloadType tags every signed ticket payload.
const PayloadType = "EVENT_TICKET"

// DefaultPayloadTTL is the validity window measured from the issue
// timestamp. A payload aged exactly at the boundary is still valid;
// expiry requires strictly greater age.
const DefaultPayloadTTL = 24 * time.Hour

// payloadFields is the signed portion of the payload. Field order is the
// canonical key order on the wire; the HMAC is computed over exactly this
// encoding.
type payloadFields struct {
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
	UserID         string `json:"userId"`
	Timestamp      string `json:"timestamp"`
	Type           string `json:"type"`
}

// Payload is the full wire form: the signed fields plus the keyed hash.
type Payload struct {
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
	UserID         string `json:"userId"`
	Timestamp      string `json:"timestamp"`
	Type           string `json:"type"`
	Hash           string `json:"hash"`
}

// IssuedAt parses the payload timestamp.
func (p *Payload) IssuedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, p.Timestamp)
}

// Signer produces and authenticates signed ticket payloads.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("ticket: signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultPayloadTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign builds the canonical payload for a registration and returns its
// serialized form with the keyed hash appended.
func (s *Signer) Sign(registrationID, eventID, userID string) (string, error) {
	fields := payloadFields{
		RegistrationID: registrationID,
		EventID:        eventID,
		UserID:         userID,
		Timestamp:      s.now().UTC().Format(time.RFC3339),
		Type:           PayloadType,
	}

	payload := Payload{
		RegistrationID: fields.RegistrationID,
		EventID:        fields.EventID,
		UserID:         fields.UserID,
		Timestamp:      fields.Timestamp,
		Type:           fields.Type,
		Hash:           s.mac(fields),
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Authenticate verifies payloadText and returns the parsed fields.
// Failures map onto domain.ErrMalformedPayload, domain.ErrTamperedPayload
// and domain.ErrExpiredPayload.
func (s *Signer) Authenticate(payloadText string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(payloadText), &p); err != nil {
		return nil, domain.ErrMalformedPayload
	}
	if p.RegistrationID == "" || p.EventID == "" {
		return nil, domain.ErrMalformedPayload
	}

	expected := s.mac(payloadFields{
		RegistrationID: p.RegistrationID,
		EventID:        p.EventID,
		UserID:         p.UserID,
		Timestamp:      p.Timestamp,
		Type:           p.Type,
	})
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(p.Hash))) {
		return nil, domain.ErrTamperedPayload
	}

	issuedAt, err := p.IssuedAt()
	if err != nil {
		return nil, domain.ErrMalformedPayload
	}
	if s.now().Sub(issuedAt) > s.ttl {
		return nil, domain.ErrExpiredPayload
	}

	return &p, nil
}

func (s *Signer) mac(fields payloadFields) string {
	body, _ := json.Marshal(fields)
	h := hmac.New(sha256.New, s.secret)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
