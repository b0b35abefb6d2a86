package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"controme_bridge"
	"controme_bridge/internal/service"
)

func putJSONAuthed(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	return w
}

func TestListThermostatsHandler(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	coord := &mockCoordinator{snap: testSnapshot()}
	r := newTestRouter(&service.Service{Authorization: auth, Coordinator: coord})

	w := getAuthed(t, r, "/api/v1/thermostats")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count       int                         `json:"count"`
		Thermostats []controme_bridge.Thermostat `json:"thermostats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || out.Thermostats[0].DeviceID != "RFAktor*1" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestGetThermostatHandler(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	mon := &mockMonitoring{thermostat: controme_bridge.Thermostat{DeviceID: "RFAktor*1", Name: "Living Room"}}
	r := newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	w := getAuthed(t, r, "/api/v1/thermostats/RFAktor*1")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	mon.thermoErr = service.ErrThermostatNotFound
	w = getAuthed(t, r, "/api/v1/thermostats/RFAktor*99")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetParameterHandler(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	mon := &mockMonitoring{reading: service.ParameterReading{
		Parameter: "sensor_offset",
		Available: true,
		Value:     1.5,
	}}
	r := newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	w := getAuthed(t, r, "/api/v1/thermostats/RFAktor*1/parameters/sensor_offset")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out service.ParameterReading
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Available || out.Value != 1.5 {
		t.Fatalf("unexpected reading: %+v", out)
	}

	// During cooldown the reading is served with available=false.
	mon.reading = service.ParameterReading{Parameter: "sensor_offset", Available: false}
	w = getAuthed(t, r, "/api/v1/thermostats/RFAktor*1/parameters/sensor_offset")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Available {
		t.Fatalf("expected available=false during cooldown")
	}

	// Unknown parameter -> 404.
	mon.readingErr = &controme_bridge.UnknownParameterError{Name: "warp_drive"}
	w = getAuthed(t, r, "/api/v1/thermostats/RFAktor*1/parameters/warp_drive")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSetParameterHandler(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	disp := &mockDispatcher{}
	r := newTestRouter(&service.Service{Authorization: auth, Dispatcher: disp})

	w := putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/parameters/locked", `{"value":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if disp.lastDeviceID != "RFAktor*3" || disp.lastParam != "locked" {
		t.Fatalf("dispatch target: %+v", disp)
	}
	if v, ok := disp.lastValue.(bool); !ok || !v {
		t.Fatalf("expected boolean true, got %#v", disp.lastValue)
	}

	// Missing body -> 400, nothing dispatched.
	w = putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/parameters/locked", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if disp.setParamN != 1 {
		t.Fatalf("invalid body must not reach the dispatcher")
	}

	// Unknown parameter propagates as 404.
	disp.setParamErr = &controme_bridge.UnknownParameterError{Name: "warp_drive"}
	w = putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/parameters/warp_drive", `{"value":1}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	// Gateway failure maps to 502.
	disp.setParamErr = &controme_bridge.TransportError{Op: "set locked", Err: http.ErrHandlerTimeout}
	w = putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/parameters/locked", `{"value":true}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestSetTemperatureHandler(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	disp := &mockDispatcher{}
	r := newTestRouter(&service.Service{Authorization: auth, Dispatcher: disp})

	w := putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/temperature", `{"target_c":21.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if disp.lastDeviceID != "RFAktor*3" || disp.lastTargetC != 21.5 {
		t.Fatalf("dispatch target: %+v", disp)
	}

	// target_c is required, 0 must still be bindable via pointer.
	w = putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*3/temperature", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing target_c, got %d", w.Code)
	}

	disp.setTempErr = service.ErrThermostatNotFound
	w = putJSONAuthed(t, r, "/api/v1/thermostats/RFAktor*9/temperature", `{"target_c":21}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
