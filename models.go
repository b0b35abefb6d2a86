package controme_bridge

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thermostat is one radio room controller as reported by the gateway,
// including its twelve setup parameters when the fetch asked for config.
// ValvePositions, MaxValvePositions and ReturnFlowTemperatures are
// index-aligned: index i refers to the same physical valve in all three.
type Thermostat struct {
	DeviceID        string `json:"device_id"` // "<TypePrefix>*<number>", e.g. "RFAktor*3"
	MACAddress      string `json:"mac_address,omitempty"`
	Name            string `json:"name"`
	FirmwareVersion string `json:"firmware_version,omitempty"`

	AssignedRoomID int    `json:"assigned_room_id,omitempty"`
	RoomName       string `json:"room_name,omitempty"`
	FloorName      string `json:"floor_name,omitempty"`

	CurrentTemperature *float64 `json:"current_temperature,omitempty"` // °C
	TargetTemperature  *float64 `json:"target_temperature,omitempty"`  // °C
	IsHeating          bool     `json:"is_heating"`

	ValvePositions         []int      `json:"valve_positions,omitempty"`     // percent, 0–100
	MaxValvePositions      []int      `json:"max_valve_positions,omitempty"` // hydraulic balancing limits
	ReturnFlowTemperatures []*float64 `json:"return_flow_temperatures,omitempty"`

	BatteryLevel   *int `json:"battery_level,omitempty"`   // percent
	SignalStrength *int `json:"signal_strength,omitempty"` // dBm

	DeviceType        string  `json:"device_type,omitempty"` // undef | hktGenius | hkt | hktControme | hkteTRV
	SensorOffset      float64 `json:"sensor_offset"`         // °C calibration
	DisplayBrightness int     `json:"display_brightness"`
	SendInterval      int     `json:"send_interval"` // seconds between RF reports
	Deviation         float64 `json:"deviation"`     // °C change threshold
	ForceSendCount    int     `json:"force_send_count"`
	Locked            bool    `json:"locked"`
	IsMainSensor      bool    `json:"is_main_sensor"`
	TempModeTemporary bool    `json:"temp_mode_temporary"`
	BatterySavingMode bool    `json:"battery_saving_mode"`
}

// DeviceNumber extracts the numeric half of the device id. The gateway
// addresses setup writes by this number, not by the full id.
func (t Thermostat) DeviceNumber() (int, error) {
	return ParseDeviceNumber(t.DeviceID)
}

// ParseDeviceNumber splits a "<TypePrefix>*<number>" device id and returns
// the number.
func ParseDeviceNumber(deviceID string) (int, error) {
	parts := strings.Split(deviceID, "*")
	if len(parts) < 2 {
		return 0, fmt.Errorf("device id %q has no numeric part", deviceID)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("device id %q: %w", deviceID, err)
	}
	return n, nil
}

// Sensor is a standalone temperature probe that is not attached to a
// thermostat, typically a return flow sensor.
type Sensor struct {
	SensorID    string   `json:"sensor_id"`
	Name        string   `json:"name"`
	RoomName    string   `json:"room_name,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"` // °C
}

// Gateway describes the single controlled gateway. Its fields are derived
// from the thermostat list during a refresh; nothing is fetched for it.
type Gateway struct {
	GatewayID                  string `json:"gateway_id"`
	Name                       string `json:"name"`
	IPAddress                  string `json:"ip_address"`
	FirmwareVersion            string `json:"firmware_version,omitempty"`
	SystemAverageValvePosition *int   `json:"system_average_valve_position,omitempty"` // percent, floor of the mean
}

// Snapshot is one complete point-in-time picture of gateway, thermostat and
// sensor state. A refresh always replaces the whole snapshot; holders of a
// previous pointer keep seeing consistent (stale) data and must not mutate it.
type Snapshot struct {
	Thermostats []Thermostat `json:"thermostats"`
	Sensors     []Sensor     `json:"sensors"`
	Gateway     Gateway      `json:"gateway"`
	TakenAt     time.Time    `json:"taken_at"`
}

// ThermostatByID returns the thermostat with the given device id, or nil.
func (s *Snapshot) ThermostatByID(deviceID string) *Thermostat {
	for i := range s.Thermostats {
		if s.Thermostats[i].DeviceID == deviceID {
			return &s.Thermostats[i]
		}
	}
	return nil
}

// CommandEvent is a single audit log entry for a dispatched command or a
// refresh failure.
type CommandEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // PARAMETER_SET | TEMPERATURE_SET | WRITE_FAILED | REFRESH_FAILED
	DeviceID    string    `json:"device_id,omitempty"`
	Parameter   string    `json:"parameter,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
