package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"controme_bridge"
	"controme_bridge/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []controme_bridge.CommandEvent{
		{EventID: "e1", OccurredAt: now, Type: "PARAMETER_SET", DeviceID: "RFAktor*1", Description: "written"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: "TEMPERATURE_SET", DeviceID: "RFAktor*1", Description: "setpoint"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{Authorization: auth, EventLog: logs}
	r := newTestRouter(s)

	// Invalid 'from' -> 400.
	w := getAuthed(t, r, "/api/v1/logs?from=notatime")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Inverted range -> 400 before the service is touched.
	w = getAuthed(t, r, "/api/v1/logs?from=2026-08-20&to=2026-08-01")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 inverted range, got %d", w.Code)
	}

	// Valid range, lowercase type normalized, device filter forwarded.
	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) +
		"&to=" + now.Add(2*time.Second).Format(time.RFC3339) +
		"&type=parameter_set&device_id=RFAktor*1"
	w = getAuthed(t, r, q)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                            `json:"count"`
		Events []controme_bridge.CommandEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "PARAMETER_SET" {
		t.Fatalf("type not normalized, got %q", logs.lastType)
	}
	if logs.lastDevice != "RFAktor*1" {
		t.Fatalf("device filter not forwarded, got %q", logs.lastDevice)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: auth, EventLog: logs})

	w := getAuthed(t, r, "/api/v1/logs?to=2026-08-23")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	wantDay := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if !logs.lastTo.After(wantDay.Add(23 * time.Hour)) {
		t.Fatalf("date-only 'to' must cover the whole day, got %v", logs.lastTo)
	}
	if !logs.lastTo.Before(wantDay.Add(24 * time.Hour)) {
		t.Fatalf("'to' leaked into the next day: %v", logs.lastTo)
	}
}

func TestLogsHandler_ServiceError(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	logs := &mockEventLog{err: errors.New("db locked")}
	r := newTestRouter(&service.Service{Authorization: auth, EventLog: logs})

	w := getAuthed(t, r, "/api/v1/logs")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
