package service

import (
	"context"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/repository"
)

// AttendanceQuery serves operator dashboards; all mutations go through
// ScanService.
type AttendanceQuery interface {
	ListByEvent(ctx context.Context, eventID string, sessionID *string, limit, offset int) ([]domain.Attendance, error)
}

type attendanceQuery struct {
	attendanceRepo repository.AttendanceRepository
	eventRepo      repository.EventRepository
}

func NewAttendanceQuery(attendanceRepo repository.AttendanceRepository, eventRepo repository.EventRepository) AttendanceQuery {
	return &attendanceQuery{attendanceRepo: attendanceRepo, eventRepo: eventRepo}
}

func (s *attendanceQuery) ListByEvent(ctx context.Context, eventID string, sessionID *string, limit, offset int) ([]domain.Attendance, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return s.attendanceRepo.ListByEvent(ctx, eventID, sessionID, limit, offset)
}
