package service

import (
	"context"
	"fmt"
	"time"

	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/metrics"
	"github.com/veritick/veritick/ports"
	"go.uber.org/zap"
)

// AttendanceService ingests scans into the attendance log.
type AttendanceService struct {
	log      ports.AttendanceLog
	eventPub ports.EventPublisher
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

// NewAttendanceService creates a new attendance service. eventPub and
// m may be nil.
func NewAttendanceService(
	log ports.AttendanceLog,
	eventPub ports.EventPublisher,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *AttendanceService {
	return &AttendanceService{
		log:      log,
		eventPub: eventPub,
		logger:   logger,
		metrics:  m,
	}
}

// RecordScan validates and appends one scan. The token is treated as an
// opaque string here; freshness is judged later, at report time, by
// joining against the issuing session's token record.
func (s *AttendanceService) RecordScan(ctx context.Context, participantID, token, sourceAddress string) (core.ScanEvent, error) {
	if participantID == "" || token == "" {
		if s.metrics != nil {
			s.metrics.IncScansRejected()
		}
		return core.ScanEvent{}, fmt.Errorf("%w: participant id and token are required", core.ErrInvalidRequest)
	}

	now := time.Now()
	event := core.ScanEvent{
		ParticipantID: participantID,
		Token:         token,
		SourceAddress: sourceAddress,
		ServerRecvTs:  now.UnixMilli(),
		LogTime:       now,
	}

	event, err := s.log.Append(ctx, event)
	if err != nil {
		return core.ScanEvent{}, fmt.Errorf("appending scan: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncScansRecorded()
	}

	// Publishing is best effort; a broker outage must not reject scans.
	if s.eventPub != nil {
		if err := s.eventPub.PublishScan(ctx, event); err != nil {
			s.logger.Warnw("failed to publish scan event", "error", err, "event_id", event.ID)
		}
	}

	return event, nil
}

// Log returns all retained scans, oldest first.
func (s *AttendanceService) Log(ctx context.Context) ([]core.ScanEvent, error) {
	events, err := s.log.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	return events, nil
}
