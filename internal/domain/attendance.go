package domain

import "time"

type AttendanceMethod string

const (
	MethodQRCode AttendanceMethod = "QR_CODE"
	MethodManual AttendanceMethod = "MANUAL"
)

// Attendance records a check-in (and optionally a check-out) for a
// registration within a session partition. SessionID nil means the whole
// event. At most one row exists per (registration, session) pair; a row
// always has CheckInTime set, so the only states are open and completed.
type Attendance struct {
	ID             int64            `json:"id"`
	RegistrationID string           `json:"registration_id"`
	SessionID      *string          `json:"session_id,omitempty"`
	CheckInTime    time.Time        `json:"check_in_time"`
	CheckOutTime   *time.Time       `json:"check_out_time,omitempty"`
	Method         AttendanceMethod `json:"method"`
}

func (a *Attendance) IsOpen() bool {
	return a.CheckOutTime == nil
}

func (a *Attendance) IsCompleted() bool {
	return a.CheckOutTime != nil
}
