package service

import (
	"errors"

	"controme_bridge"
)

var (
	ErrNoSnapshot         = errors.New("no snapshot available yet")
	ErrThermostatNotFound = errors.New("thermostat not found")
)

// SystemMetrics is the derived system-level view of one snapshot. The two
// demand numbers intentionally differ: SystemHeatingDemand weights every
// valve equally, RoomBasedHeatingDemand weights every room equally.
type SystemMetrics struct {
	SystemHeatingDemand      *int          `json:"system_heating_demand,omitempty"`
	RoomBasedHeatingDemand   *float64      `json:"room_based_heating_demand,omitempty"`
	ActiveHeatingThermostats int           `json:"active_heating_thermostats"`
	TotalThermostats         int           `json:"total_thermostats"`
	HighDemand               DemandSummary `json:"high_demand"`
	LowDemand                DemandSummary `json:"low_demand"`
}

// ParameterReading answers a point query for one writable parameter.
// Available is false while the pair is cooling down after a write; the
// snapshot value is withheld because it may predate the pending change.
type ParameterReading struct {
	Parameter string `json:"parameter"`
	Available bool   `json:"available"`
	Value     any    `json:"value,omitempty"`
}

// MonitoringService answers read-only point queries from the coordinator's
// current snapshot, consulting the dispatcher's cooldown state.
type MonitoringService struct {
	coord Coordinator
	disp  Dispatcher
}

func NewMonitoringService(coord Coordinator, disp Dispatcher) *MonitoringService {
	return &MonitoringService{coord: coord, disp: disp}
}

// Metrics computes the aggregate view over the current snapshot.
func (s *MonitoringService) Metrics() (SystemMetrics, error) {
	snap := s.coord.Snapshot()
	if snap == nil {
		return SystemMetrics{}, ErrNoSnapshot
	}

	m := SystemMetrics{
		ActiveHeatingThermostats: ActiveHeatingCount(snap),
		TotalThermostats:         len(snap.Thermostats),
		HighDemand:               HighDemandRooms(snap, HighDemandThreshold),
		LowDemand:                LowDemandRooms(snap, LowDemandThreshold),
	}
	if avg, ok := SystemAverage(snap); ok {
		m.SystemHeatingDemand = &avg
	}
	if avg, ok := RoomBasedSystemAverage(snap); ok {
		m.RoomBasedHeatingDemand = &avg
	}
	return m, nil
}

// Thermostat returns the snapshot record for one device.
func (s *MonitoringService) Thermostat(deviceID string) (controme_bridge.Thermostat, error) {
	snap := s.coord.Snapshot()
	if snap == nil {
		return controme_bridge.Thermostat{}, ErrNoSnapshot
	}
	t := snap.ThermostatByID(deviceID)
	if t == nil {
		return controme_bridge.Thermostat{}, ErrThermostatNotFound
	}
	return *t, nil
}

// ParameterValue reads one writable parameter from the snapshot. During the
// cooldown window after a write it reports unavailable instead of a value
// that might be stale relative to the pending change; after the window the
// snapshot is authoritative again even if it still shows the old value.
func (s *MonitoringService) ParameterValue(deviceID, name string) (ParameterReading, error) {
	spec, ok := paramTable[name]
	if !ok {
		return ParameterReading{}, &controme_bridge.UnknownParameterError{Name: name}
	}

	if s.disp.InCooldown(deviceID, name) {
		return ParameterReading{Parameter: name, Available: false}, nil
	}

	t, err := s.Thermostat(deviceID)
	if err != nil {
		return ParameterReading{}, err
	}
	return ParameterReading{Parameter: name, Available: true, Value: spec.Read(t)}, nil
}
