package service

import (
	"context"
	"time"

	"controme_bridge"
	"controme_bridge/internal/device"
	"controme_bridge/internal/logger"
)

const (
	gatewayID   = "main"
	gatewayName = "Controme Gateway"
)

// SnapshotBuilder runs one refresh cycle: it fetches thermostats and sensors
// from the gateway and assembles them into a single immutable snapshot.
// Build blocks on gateway I/O; the coordinator is responsible for keeping it
// off latency-sensitive paths.
type SnapshotBuilder struct {
	client      device.Client
	gatewayHost string
	log         *logger.Logger
	now         func() time.Time
}

func NewSnapshotBuilder(client device.Client, gatewayHost string, log *logger.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		client:      client,
		gatewayHost: gatewayHost,
		log:         log,
		now:         time.Now,
	}
}

// Build fetches everything and returns a fresh snapshot. The thermostat
// fetch is mandatory: an error or an empty device list fails the whole
// build. Sensors are optional; their failure degrades to an empty list.
func (b *SnapshotBuilder) Build(ctx context.Context) (*controme_bridge.Snapshot, error) {
	thermostats, err := b.client.GetThermostats(ctx, true, true)
	if err != nil {
		return nil, err
	}
	if len(thermostats) == 0 {
		return nil, controme_bridge.ErrEmptyResult
	}

	sensors, err := b.client.GetSensors(ctx)
	if err != nil {
		if b.log != nil {
			b.log.Warnw("sensor_fetch_failed", "err", err)
		}
		sensors = nil
	}

	return &controme_bridge.Snapshot{
		Thermostats: thermostats,
		Sensors:     sensors,
		Gateway:     b.synthesizeGateway(thermostats),
		TakenAt:     b.now().UTC(),
	}, nil
}

// synthesizeGateway derives the gateway record from the thermostat list;
// nothing is fetched for it. The system-wide average valve position stays
// unset (unknown, not zero) when no thermostat has any valve.
func (b *SnapshotBuilder) synthesizeGateway(thermostats []controme_bridge.Thermostat) controme_bridge.Gateway {
	gw := controme_bridge.Gateway{
		GatewayID: gatewayID,
		Name:      gatewayName,
		IPAddress: b.gatewayHost,
	}

	snap := controme_bridge.Snapshot{Thermostats: thermostats}
	if avg, ok := SystemAverage(&snap); ok {
		gw.SystemAverageValvePosition = &avg
	}
	return gw
}
