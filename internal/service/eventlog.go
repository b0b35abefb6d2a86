package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"controme_bridge"
	"controme_bridge/internal/repository"
)

// LogFilter narrows audit log queries. Zero times mean no bound.
type LogFilter struct {
	From     time.Time // inclusive
	To       time.Time // inclusive
	Type     string    // "", "PARAMETER_SET", "TEMPERATURE_SET", "WRITE_FAILED", "REFRESH_FAILED"
	DeviceID string    // "" matches all devices
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]controme_bridge.CommandEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	return s.events.List(ctx, from, to, typ, strings.TrimSpace(f.DeviceID))
}

// normalizeToUTC returns t in UTC, preserving zero values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
