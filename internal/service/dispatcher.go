package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"controme_bridge"
	"controme_bridge/internal/device"
	"controme_bridge/internal/logger"
	"controme_bridge/internal/repository"
)

// CooldownWindow suppresses read-back of a just-written parameter. The
// gateway accepts a write immediately but the device only picks it up after
// its RF send interval, up to 60 seconds; a poll inside that window would
// still show the old value.
const CooldownWindow = 60 * time.Second

// Room setpoint bounds in °C.
const (
	minRoomTemperature = 5.0
	maxRoomTemperature = 30.0
)

type paramKind int

const (
	kindNumber paramKind = iota
	kindBool
	kindEnum
)

// ParamSpec describes one writable thermostat parameter: its wire name, the
// accepted value shape and range, and how to read it back from a snapshot.
type ParamSpec struct {
	Wire    string
	Kind    paramKind
	Min     float64
	Max     float64
	Integer bool
	Options []string
	Read    func(t controme_bridge.Thermostat) any
}

// paramTable maps logical parameter names to their wire descriptors. One
// generic dispatcher is driven from this table; there is no per-parameter
// code path.
var paramTable = map[string]ParamSpec{
	"sensor_offset": {
		Wire: "sensorOffset", Kind: kindNumber, Min: -5, Max: 5,
		Read: func(t controme_bridge.Thermostat) any { return t.SensorOffset },
	},
	"display_brightness": {
		Wire: "dispBright", Kind: kindNumber, Min: 0, Max: 30, Integer: true,
		Read: func(t controme_bridge.Thermostat) any { return t.DisplayBrightness },
	},
	"send_interval": {
		Wire: "sendInterval", Kind: kindNumber, Min: 60, Max: 3600, Integer: true,
		Read: func(t controme_bridge.Thermostat) any { return t.SendInterval },
	},
	"deviation": {
		Wire: "deviation", Kind: kindNumber, Min: 0, Max: 0.5,
		Read: func(t controme_bridge.Thermostat) any { return t.Deviation },
	},
	"force_send_count": {
		Wire: "forceSendCount", Kind: kindNumber, Min: 0, Max: 10, Integer: true,
		Read: func(t controme_bridge.Thermostat) any { return t.ForceSendCount },
	},
	"locked": {
		Wire: "locked", Kind: kindBool,
		Read: func(t controme_bridge.Thermostat) any { return t.Locked },
	},
	"is_main_sensor": {
		Wire: "isMainSensor", Kind: kindBool,
		Read: func(t controme_bridge.Thermostat) any { return t.IsMainSensor },
	},
	"temp_mode_temporary": {
		Wire: "tempModeTemporary", Kind: kindBool,
		Read: func(t controme_bridge.Thermostat) any { return t.TempModeTemporary },
	},
	"battery_saving_mode": {
		Wire: "batterySavingMode", Kind: kindBool,
		Read: func(t controme_bridge.Thermostat) any { return t.BatterySavingMode },
	},
	"device_type": {
		Wire: "deviceType", Kind: kindEnum,
		Options: []string{"undef", "hktGenius", "hkt", "hktControme", "hkteTRV"},
		Read:    func(t controme_bridge.Thermostat) any { return t.DeviceType },
	},
	"room_assignment": {
		Wire: "roomID", Kind: kindNumber, Min: 0, Max: 9999, Integer: true,
		Read: func(t controme_bridge.Thermostat) any { return t.AssignedRoomID },
	},
}

// CommandService issues writes through the gateway client and owns the
// per-(device, parameter) cooldown markers. Concurrent writes to different
// pairs are independent; same-pair writes race at the gateway (last write
// wins at the device).
type CommandService struct {
	client device.Client
	coord  Coordinator
	events repository.EventRepo
	log    *logger.Logger

	mu         sync.Mutex
	lastChange map[string]time.Time
	now        func() time.Time
}

func NewCommandService(client device.Client, coord Coordinator, events repository.EventRepo, log *logger.Logger) *CommandService {
	return &CommandService{
		client:     client,
		coord:      coord,
		events:     events,
		log:        log,
		lastChange: make(map[string]time.Time),
		now:        time.Now,
	}
}

// SetParameter validates, clamps and dispatches one parameter write. On
// success it starts the cooldown window for that device+parameter pair,
// notifies subscribers and requests an out-of-cycle refresh. On failure
// nothing else happens: the entity must not look changed.
func (s *CommandService) SetParameter(ctx context.Context, deviceID, name string, value any) error {
	spec, ok := paramTable[name]
	if !ok {
		return &controme_bridge.UnknownParameterError{Name: name}
	}

	deviceNum, err := controme_bridge.ParseDeviceNumber(deviceID)
	if err != nil {
		return err
	}

	wireValue, err := s.encode(spec, deviceID, name, value)
	if err != nil {
		return err
	}

	if err := s.client.SetThermostatParameter(ctx, deviceNum, spec.Wire, wireValue); err != nil {
		if s.log != nil {
			s.log.Errorw("parameter_write_failed", "device_id", deviceID, "parameter", name, "err", err)
		}
		s.audit(ctx, controme_bridge.CommandEvent{
			Type:        "WRITE_FAILED",
			DeviceID:    deviceID,
			Parameter:   name,
			Description: "parameter write rejected by gateway",
			Metadata:    map[string]any{"wire_name": spec.Wire, "wire_value": wireValue, "error": err.Error()},
		})
		return err
	}

	s.markChanged(deviceID, name)
	if s.log != nil {
		s.log.Infow("parameter_written", "device_id", deviceID, "parameter", name,
			"wire_value", wireValue, "cooldown", CooldownWindow)
	}
	s.audit(ctx, controme_bridge.CommandEvent{
		Type:        "PARAMETER_SET",
		DeviceID:    deviceID,
		Parameter:   name,
		Description: "parameter written to gateway",
		Metadata:    map[string]any{"wire_name": spec.Wire, "wire_value": wireValue},
	})

	s.coord.Broadcast()
	if err := s.coord.Refresh(ctx); err != nil && s.log != nil {
		s.log.Warnw("post_write_refresh_failed", "device_id", deviceID, "err", err)
	}
	return nil
}

// SetRoomTemperature writes the setpoint of the room the thermostat is
// assigned to. Room setpoints read back from the gateway immediately, so no
// cooldown is started.
func (s *CommandService) SetRoomTemperature(ctx context.Context, deviceID string, value float64) error {
	snap := s.coord.Snapshot()
	if snap == nil {
		return ErrNoSnapshot
	}
	t := snap.ThermostatByID(deviceID)
	if t == nil {
		return ErrThermostatNotFound
	}
	if t.AssignedRoomID == 0 {
		return fmt.Errorf("thermostat %s is not assigned to a room", deviceID)
	}

	clamped := clamp(value, minRoomTemperature, maxRoomTemperature)
	if clamped != value && s.log != nil {
		s.log.Warnw("setpoint_clamped", "device_id", deviceID, "requested", value, "clamped", clamped)
	}

	if err := s.client.SetRoomTemperature(ctx, t.AssignedRoomID, clamped); err != nil {
		if s.log != nil {
			s.log.Errorw("setpoint_write_failed", "device_id", deviceID, "room_id", t.AssignedRoomID, "err", err)
		}
		return err
	}

	if s.log != nil {
		s.log.Infow("setpoint_written", "device_id", deviceID, "room_id", t.AssignedRoomID, "target_c", clamped)
	}
	s.audit(ctx, controme_bridge.CommandEvent{
		Type:        "TEMPERATURE_SET",
		DeviceID:    deviceID,
		Description: "room setpoint written to gateway",
		Metadata:    map[string]any{"room_id": t.AssignedRoomID, "target_c": clamped},
	})

	s.coord.Broadcast()
	if err := s.coord.Refresh(ctx); err != nil && s.log != nil {
		s.log.Warnw("post_write_refresh_failed", "device_id", deviceID, "err", err)
	}
	return nil
}

// InCooldown reports whether the device+parameter pair is inside the window
// after its last successful write. A read never resets the marker.
func (s *CommandService) InCooldown(deviceID, name string) bool {
	s.mu.Lock()
	ts, ok := s.lastChange[cooldownKey(deviceID, name)]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.now().Sub(ts) < CooldownWindow
}

func (s *CommandService) markChanged(deviceID, name string) {
	s.mu.Lock()
	s.lastChange[cooldownKey(deviceID, name)] = s.now()
	s.mu.Unlock()
}

func cooldownKey(deviceID, name string) string {
	return deviceID + "/" + name
}

// encode turns a logical value into its wire form, clamping numbers to the
// declared range. Out-of-range input is corrected, not rejected.
func (s *CommandService) encode(spec ParamSpec, deviceID, name string, value any) (string, error) {
	switch spec.Kind {
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("parameter %s expects a boolean, got %T", name, value)
		}
		// Asymmetric on purpose: the gateway wants "checked"/"".
		if b {
			return "checked", nil
		}
		return "", nil

	case kindEnum:
		v, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("parameter %s expects a string, got %T", name, value)
		}
		for _, opt := range spec.Options {
			if v == opt {
				return v, nil
			}
		}
		return "", fmt.Errorf("parameter %s: %q is not one of %v", name, v, spec.Options)

	case kindNumber:
		v, ok := toFloat(value)
		if !ok {
			return "", fmt.Errorf("parameter %s expects a number, got %T", name, value)
		}
		clamped := clamp(v, spec.Min, spec.Max)
		if clamped != v && s.log != nil {
			s.log.Warnw("parameter_clamped", "device_id", deviceID, "parameter", name,
				"requested", v, "clamped", clamped, "min", spec.Min, "max", spec.Max)
		}
		if spec.Integer {
			return strconv.Itoa(int(math.Round(clamped))), nil
		}
		return strconv.FormatFloat(clamped, 'f', -1, 64), nil

	default:
		return "", fmt.Errorf("parameter %s has unsupported kind", name)
	}
}

// audit appends a command event; audit failures never fail the write path.
func (s *CommandService) audit(ctx context.Context, e controme_bridge.CommandEvent) {
	if s.events == nil {
		return
	}
	e.OccurredAt = s.now().UTC()
	if err := s.events.Append(ctx, e); err != nil && s.log != nil {
		s.log.Warnw("audit_append_failed", "type", e.Type, "err", err)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
