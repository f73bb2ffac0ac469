package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/andhikafr19/eo-app/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	TicketIssued         = "ticket.issued"
	AttendanceCheckedIn  = "attendance.checked_in"
	AttendanceCheckedOut = "attendance.checked_out"
)

type TicketIssuedEvent struct {
	TicketID       string    `json:"ticket_id"`
	TicketNumber   string    `json:"ticket_number"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	IssuedAt       time.Time `json:"issued_at"`
}

type AttendanceCheckedInEvent struct {
	AttendanceID   int64     `json:"attendance_id"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	SessionID      *string   `json:"session_id,omitempty"`
	Method         string    `json:"method"`
	CheckInTime    time.Time `json:"check_in_time"`
}

type AttendanceCheckedOutEvent struct {
	AttendanceID   int64     `json:"attendance_id"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	SessionID      *string   `json:"session_id,omitempty"`
	CheckOutTime   time.Time `json:"check_out_time"`
}
