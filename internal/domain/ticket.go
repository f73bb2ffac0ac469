package domain

import "time"

// Ticket is the persisted issuance result for a registration. IsUsed and
// UsedAt are a legacy single-shot projection kept for non-session events;
// the attendance table is authoritative.
type Ticket struct {
	ID             string     `json:"id"`
	RegistrationID string     `json:"registration_id"`
	TicketNumber   string     `json:"ticket_number"`
	PayloadText    string     `json:"payload_text"`
	RenderedCode   []byte     `json:"-"`
	IsUsed         bool       `json:"is_used"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TicketPreview is a bounded diagnostic view of a ticket, safe to return
// to operators on lookup failures. It never carries payload text.
type TicketPreview struct {
	ID           string `json:"id"`
	NumberPrefix string `json:"number_prefix"`
}

func (t *Ticket) Preview() TicketPreview {
	const prefixLen = 8
	number := t.TicketNumber
	if len(number) > prefixLen {
		number = number[:prefixLen] + "…"
	}
	return TicketPreview{ID: t.ID, NumberPrefix: number}
}
