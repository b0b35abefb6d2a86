package service

import (
	"context"
	"sync"
	"time"

	"controme_bridge"
)

// fakeGatewayClient implements device.Client with canned responses and call
// recording.
type fakeGatewayClient struct {
	mu sync.Mutex

	thermostats    []controme_bridge.Thermostat
	thermostatsErr error
	sensors        []controme_bridge.Sensor
	sensorsErr     error
	setTempErr     error
	setParamErr    error

	thermostatCalls int
	sensorCalls     int

	setTempRoomID int
	setTempValue  float64
	setTempCalls  int

	setParamDeviceNum int
	setParamWireName  string
	setParamValue     string
	setParamCalls     int
}

func (f *fakeGatewayClient) GetThermostats(ctx context.Context, includeConfig, includeValveData bool) ([]controme_bridge.Thermostat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thermostatCalls++
	if f.thermostatsErr != nil {
		return nil, f.thermostatsErr
	}
	return f.thermostats, nil
}

func (f *fakeGatewayClient) GetSensors(ctx context.Context) ([]controme_bridge.Sensor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sensorCalls++
	if f.sensorsErr != nil {
		return nil, f.sensorsErr
	}
	return f.sensors, nil
}

func (f *fakeGatewayClient) SetRoomTemperature(ctx context.Context, roomID int, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTempCalls++
	f.setTempRoomID = roomID
	f.setTempValue = value
	return f.setTempErr
}

func (f *fakeGatewayClient) SetThermostatParameter(ctx context.Context, deviceNum int, wireName, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setParamCalls++
	f.setParamDeviceNum = deviceNum
	f.setParamWireName = wireName
	f.setParamValue = value
	return f.setParamErr
}

// fakeEventRepo records appended events in memory.
type fakeEventRepo struct {
	mu        sync.Mutex
	appendErr error
	events    []controme_bridge.CommandEvent
	listErr   error
}

func (f *fakeEventRepo) Append(ctx context.Context, e controme_bridge.CommandEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]controme_bridge.CommandEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []controme_bridge.CommandEvent
	for _, e := range f.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		if deviceID != "" && e.DeviceID != deviceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) lastEvent() (controme_bridge.CommandEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return controme_bridge.CommandEvent{}, false
	}
	return f.events[len(f.events)-1], true
}

// fakeBuilder returns queued snapshots or errors, one per Build call.
type fakeBuilder struct {
	mu      sync.Mutex
	results []buildResult
	calls   int
	block   chan struct{} // when set, Build waits for it before returning
}

type buildResult struct {
	snap *controme_bridge.Snapshot
	err  error
}

func (f *fakeBuilder) queue(snap *controme_bridge.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, buildResult{snap: snap, err: err})
}

func (f *fakeBuilder) Build(ctx context.Context) (*controme_bridge.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	var r buildResult
	if len(f.results) > 0 {
		r = f.results[0]
		f.results = f.results[1:]
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return r.snap, r.err
}

func (f *fakeBuilder) buildCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// valveThermostat builds a named thermostat with the given valve positions.
func valveThermostat(deviceID, name string, valves ...int) controme_bridge.Thermostat {
	return controme_bridge.Thermostat{
		DeviceID:       deviceID,
		Name:           name,
		ValvePositions: valves,
	}
}

func snapshotOf(thermostats ...controme_bridge.Thermostat) *controme_bridge.Snapshot {
	return &controme_bridge.Snapshot{
		Thermostats: thermostats,
		TakenAt:     time.Now().UTC(),
	}
}
