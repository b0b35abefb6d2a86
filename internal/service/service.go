package service

import (
	"context"
	"time"

	"controme_bridge"
	"controme_bridge/internal/device"
	"controme_bridge/internal/logger"
	"controme_bridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Coordinator owns the current snapshot and the polling loop.
type Coordinator interface {
	Run(ctx context.Context, tick time.Duration)
	Refresh(ctx context.Context) error
	Snapshot() *controme_bridge.Snapshot
	LastError() error
	Subscribe(fn func()) (unsubscribe func())
	Broadcast()
}

// Dispatcher issues parameter and setpoint writes with cooldown protection.
type Dispatcher interface {
	SetParameter(ctx context.Context, deviceID, name string, value any) error
	SetRoomTemperature(ctx context.Context, deviceID string, value float64) error
	InCooldown(deviceID, name string) bool
}

// Monitoring exposes read-only point queries over the current snapshot.
type Monitoring interface {
	Metrics() (SystemMetrics, error)
	Thermostat(deviceID string) (controme_bridge.Thermostat, error)
	ParameterValue(deviceID, name string) (ParameterReading, error)
}

// EventLog exposes the command audit trail with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]controme_bridge.CommandEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Coordinator
	Dispatcher
	Monitoring
	EventLog
	Authorization
}

// NewService wires the gateway client and repository layer into concrete
// services. gatewayHost only labels the synthesized Gateway record.
func NewService(repos *repository.Repository, client device.Client, gatewayHost, jwtSigningKey string, log *logger.Logger) *Service {
	builder := NewSnapshotBuilder(client, gatewayHost, log)
	coord := NewPollCoordinator(builder, repos.Events, log)
	disp := NewCommandService(client, coord, repos.Events, log)

	return &Service{
		Coordinator:   coord,
		Dispatcher:    disp,
		Monitoring:    NewMonitoringService(coord, disp),
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Auth, jwtSigningKey),
	}
}
