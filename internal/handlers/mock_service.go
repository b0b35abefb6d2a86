package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"controme_bridge"
	"controme_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCoordinator struct {
	mu         sync.Mutex
	snap       *controme_bridge.Snapshot
	lastErr    error
	refreshErr error

	refreshCalls   int
	broadcastCalls int
	listeners      []func()
}

func (m *mockCoordinator) Run(ctx context.Context, tick time.Duration) {}
func (m *mockCoordinator) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshErr
}
func (m *mockCoordinator) Snapshot() *controme_bridge.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
func (m *mockCoordinator) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
func (m *mockCoordinator) Subscribe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	return func() {}
}
func (m *mockCoordinator) Broadcast() {
	m.mu.Lock()
	m.broadcastCalls++
	fns := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type mockDispatcher struct {
	setParamErr error
	setTempErr  error
	cooldown    bool

	lastDeviceID string
	lastParam    string
	lastValue    any
	lastTargetC  float64
	setParamN    int
	setTempN     int
}

func (m *mockDispatcher) SetParameter(ctx context.Context, deviceID, name string, value any) error {
	m.setParamN++
	m.lastDeviceID = deviceID
	m.lastParam = name
	m.lastValue = value
	return m.setParamErr
}
func (m *mockDispatcher) SetRoomTemperature(ctx context.Context, deviceID string, value float64) error {
	m.setTempN++
	m.lastDeviceID = deviceID
	m.lastTargetC = value
	return m.setTempErr
}
func (m *mockDispatcher) InCooldown(deviceID, name string) bool { return m.cooldown }

type mockMonitoring struct {
	metrics    service.SystemMetrics
	metricsErr error
	thermostat controme_bridge.Thermostat
	thermoErr  error
	reading    service.ParameterReading
	readingErr error
}

func (m *mockMonitoring) Metrics() (service.SystemMetrics, error) {
	return m.metrics, m.metricsErr
}
func (m *mockMonitoring) Thermostat(deviceID string) (controme_bridge.Thermostat, error) {
	return m.thermostat, m.thermoErr
}
func (m *mockMonitoring) ParameterValue(deviceID, name string) (service.ParameterReading, error) {
	return m.reading, m.readingErr
}

type mockEventLog struct {
	resp       []controme_bridge.CommandEvent
	err        error
	lastFrom   time.Time
	lastTo     time.Time
	lastType   string
	lastDevice string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]controme_bridge.CommandEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastDevice = f.DeviceID
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
