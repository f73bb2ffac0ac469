package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/andhikafr19/eo-app/internal/domain"
)

const (
	ticketNumberPrefix = "TK-"
	numberSuffixBytes  = 4 // 8 hex chars
	codeImageSize      = 256
)

// Issued is the output of a single issuance: everything the store needs
// to persist a ticket. Nothing is written here; the caller owns the
// store transaction and the duplicate-number retry.
type Issued struct {
	TicketNumber string
	PayloadText  string
	RenderedCode []byte
}

// Issuer produces ticket numbers, signed payloads and renderable code
// images. Stateless apart from the signing secret and clock.
type Issuer struct {
	signer *Signer
	now    func() time.Time
}

func NewIssuer(signer *Signer) *Issuer {
	return &Issuer{signer: signer, now: time.Now}
}

// Issue builds the ticket artifacts for a registration. The payload and
// code image are generated before any store write so that a render
// failure leaves no partial ticket behind.
func (i *Issuer) Issue(registrationID, eventID, userID string) (*Issued, error) {
	payloadText, err := i.signer.Sign(registrationID, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}

	// High error correction: the image may be printed, photographed and
	// rescanned before it ever reaches a decoder.
	png, err := qrcode.Encode(payloadText, qrcode.High, codeImageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}

	return &Issued{
		TicketNumber: i.NewTicketNumber(),
		PayloadText:  payloadText,
		RenderedCode: png,
	}, nil
}

// NewTicketNumber generates a fresh human-facing ticket number: a fixed
// tag, a base-36 timestamp and a random hex suffix. Collisions are
// practically impossible but not ruled out; the store's uniqueness
// constraint is the real guarantee and callers retry on conflict.
func (i *Issuer) NewTicketNumber() string {
	suffix := make([]byte, numberSuffixBytes)
	rand.Read(suffix)
	return ticketNumberPrefix + strconv.FormatInt(i.now().UnixMilli(), 36) + hex.EncodeToString(suffix)
}
