package domain

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventCancelled:
		return EventStatus(s), true
	default:
		return "", false
	}
}

type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Status      EventStatus `json:"status"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	OrganizerID int64       `json:"organizer_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Scannable reports whether attendance scans are accepted for the event
// at the given instant.
func (e *Event) Scannable(now time.Time) error {
	if e.Status != EventPublished && e.Status != EventOngoing {
		return ErrEventNotScannable
	}
	if now.Before(e.StartDate) {
		return ErrEventNotStarted
	}
	if now.After(e.EndDate) {
		return ErrEventEnded
	}
	return nil
}
