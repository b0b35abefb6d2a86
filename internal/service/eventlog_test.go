package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"controme_bridge"
)

func TestEventLog_RejectsInvertedRange(t *testing.T) {
	t.Parallel()
	s := NewEventLogService(&fakeEventRepo{})

	from := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	_, err := s.List(context.Background(), LogFilter{From: from, To: from.Add(-time.Hour)})
	if err == nil {
		t.Fatalf("expected error for From > To")
	}
}

func TestEventLog_NormalizesTypeAndFilters(t *testing.T) {
	t.Parallel()
	repo := &fakeEventRepo{}
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	seed := []controme_bridge.CommandEvent{
		{EventID: "1", OccurredAt: base, Type: "PARAMETER_SET", DeviceID: "RFAktor*1"},
		{EventID: "2", OccurredAt: base.Add(time.Hour), Type: "TEMPERATURE_SET", DeviceID: "RFAktor*1"},
		{EventID: "3", OccurredAt: base.Add(2 * time.Hour), Type: "PARAMETER_SET", DeviceID: "RFAktor*2"},
	}
	for _, e := range seed {
		_ = repo.Append(context.Background(), e)
	}
	s := NewEventLogService(repo)

	got, err := s.List(context.Background(), LogFilter{Type: "parameter_set"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("type filter: expected 2 events, got %d", len(got))
	}

	got, err = s.List(context.Background(), LogFilter{DeviceID: "RFAktor*1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("device filter: expected 2 events, got %d", len(got))
	}

	got, err = s.List(context.Background(), LogFilter{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("time filter: got %+v", got)
	}
}

func TestEventLog_PropagatesRepoError(t *testing.T) {
	t.Parallel()
	repoErr := errors.New("db locked")
	s := NewEventLogService(&fakeEventRepo{listErr: repoErr})
	if _, err := s.List(context.Background(), LogFilter{}); !errors.Is(err, repoErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}
