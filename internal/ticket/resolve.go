package ticket

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/andhikafr19/eo-app/internal/domain"
)

// Source identifies which resolution strategy matched the scan text.
// Only SourceJSON can carry an authenticated payload; the other sources
// are unauthenticated shortcuts.
type Source string

const (
	SourceJSON   Source = "json"
	SourceURL    Source = "url"
	SourceBareID Source = "bare_id"
	SourceBase64 Source = "base64_json"
)

// Resolved is the registration reference recovered from raw scan text.
// EventID and UserID are present only when the matched format carries
// them.
type Resolved struct {
	Source         Source
	RegistrationID string
	EventID        string
	UserID         string
}

// Authenticated reports whether the resolution path can be trusted after
// payload authentication. URL, bare-id and base64 paths never are.
func (r *Resolved) Authenticated() bool {
	return r.Source == SourceJSON
}

const previewLimit = 120

var bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Resolve recovers a registration reference from untyped scan text.
// Strategies are tried in strict order and the first match wins: JSON
// object, URL query parameters, bare identifier, base64-encoded JSON.
func Resolve(raw string) (*Resolved, error) {
	text := strings.TrimSpace(raw)

	if r := resolveJSON(text, SourceJSON); r != nil {
		return r, nil
	}
	if r := resolveURL(text); r != nil {
		return r, nil
	}
	if r := resolveBareID(text); r != nil {
		return r, nil
	}
	if r := resolveBase64(text); r != nil {
		return r, nil
	}

	return nil, &domain.UnrecognizedFormatError{Preview: truncate(text, previewLimit)}
}

type scanFields struct {
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
	UserID         string `json:"userId"`
}

func resolveJSON(text string, source Source) *Resolved {
	if !strings.HasPrefix(text, "{") {
		return nil
	}
	var fields scanFields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil
	}
	if fields.RegistrationID == "" {
		return nil
	}
	return &Resolved{
		Source:         source,
		RegistrationID: fields.RegistrationID,
		EventID:        fields.EventID,
		UserID:         fields.UserID,
	}
}

func resolveURL(text string) *Resolved {
	if !strings.Contains(text, "://") {
		return nil
	}
	u, err := url.Parse(text)
	if err != nil || u.Scheme == "" {
		return nil
	}
	q := u.Query()
	registrationID := q.Get("registrationId")
	if registrationID == "" {
		return nil
	}
	return &Resolved{
		Source:         SourceURL,
		RegistrationID: registrationID,
		EventID:        q.Get("eventId"),
		UserID:         q.Get("userId"),
	}
}

func resolveBareID(text string) *Resolved {
	if text == "" || !bareIDPattern.MatchString(text) {
		return nil
	}
	return &Resolved{Source: SourceBareID, RegistrationID: text}
}

func resolveBase64(text string) *Resolved {
	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(text)
		if err != nil {
			return nil
		}
	}
	return resolveJSON(strings.TrimSpace(string(decoded)), SourceBase64)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
