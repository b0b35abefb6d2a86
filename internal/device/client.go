package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"controme_bridge"
)

// Client is the gateway-facing surface the sync layer consumes. Reads return
// full per-device lists or fail as a whole; writes are accepted by the
// gateway immediately but reach the device only after its RF send interval.
type Client interface {
	GetThermostats(ctx context.Context, includeConfig, includeValveData bool) ([]controme_bridge.Thermostat, error)
	GetSensors(ctx context.Context) ([]controme_bridge.Sensor, error)
	SetRoomTemperature(ctx context.Context, roomID int, value float64) error
	SetThermostatParameter(ctx context.Context, deviceNum int, wireName, value string) error
}

const (
	defaultTimeout = 30 * time.Second

	boolChecked = "checked" // gateway encodes true as "checked", false as ""
)

// HTTPClient talks to the Controme gateway's private web API. Reads are JSON
// GETs, writes are form-encoded POSTs carrying the account credentials.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	houseID  int
	http     *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates the connection settings once; they are not
// re-validated per call.
func NewHTTPClient(host, username, password string, houseID int) (*HTTPClient, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("controme host is required")
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("controme credentials are required")
	}
	if houseID < 1 {
		return nil, fmt.Errorf("controme house id must be >= 1, got %d", houseID)
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(host, "/"),
		username: username,
		password: password,
		houseID:  houseID,
		http:     &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Host returns the configured gateway address (scheme stripped), used when
// synthesizing the Gateway record.
func (c *HTTPClient) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.Host
}

// rfDevicePayload mirrors one entry of the gateway's rfdevices listing.
// Boolean setup flags arrive the same way they are written: "checked" or "".
type rfDevicePayload struct {
	DeviceID          string     `json:"deviceID"`
	MAC               string     `json:"mac"`
	Description       string     `json:"description"`
	Firmware          string     `json:"firmware"`
	RoomID            int        `json:"roomID"`
	RoomName          string     `json:"roomName"`
	FloorName         string     `json:"floorName"`
	Temperature       *float64   `json:"temperature"`
	TargetTemperature *float64   `json:"targetTemperature"`
	IsHeating         bool       `json:"isHeating"`
	ValvePositions    []int      `json:"valvePositions"`
	MaxValvePositions []int      `json:"maxValvePositions"`
	ReturnFlowTemps   []*float64 `json:"returnFlowTemperatures"`
	Battery           *int       `json:"battery"`
	RSSI              *int       `json:"rssi"`

	DeviceType        string  `json:"deviceType"`
	SensorOffset      float64 `json:"sensorOffset"`
	DispBright        int     `json:"dispBright"`
	SendInterval      int     `json:"sendInterval"`
	Deviation         float64 `json:"deviation"`
	ForceSendCount    int     `json:"forceSendCount"`
	Locked            string  `json:"locked"`
	IsMainSensor      string  `json:"isMainSensor"`
	TempModeTemporary string  `json:"tempModeTemporary"`
	BatterySavingMode string  `json:"batterySavingMode"`
}

type sensorPayload struct {
	SensorID    string   `json:"sensorID"`
	Description string   `json:"description"`
	RoomName    string   `json:"roomName"`
	Temperature *float64 `json:"temperature"`
}

// GetThermostats fetches the full radio device list. includeConfig adds the
// setup parameters, includeValveData adds valve and return flow readings.
func (c *HTTPClient) GetThermostats(ctx context.Context, includeConfig, includeValveData bool) ([]controme_bridge.Thermostat, error) {
	q := url.Values{}
	if includeConfig {
		q.Set("config", "1")
	}
	if includeValveData {
		q.Set("valves", "1")
	}
	endpoint := fmt.Sprintf("%s/get/json/v1/%d/rfdevices/", c.baseURL, c.houseID)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var payload []rfDevicePayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, &controme_bridge.TransportError{Op: "get rfdevices", Err: err}
	}

	out := make([]controme_bridge.Thermostat, 0, len(payload))
	for _, p := range payload {
		out = append(out, controme_bridge.Thermostat{
			DeviceID:               p.DeviceID,
			MACAddress:             p.MAC,
			Name:                   p.Description,
			FirmwareVersion:        p.Firmware,
			AssignedRoomID:         p.RoomID,
			RoomName:               p.RoomName,
			FloorName:              p.FloorName,
			CurrentTemperature:     p.Temperature,
			TargetTemperature:      p.TargetTemperature,
			IsHeating:              p.IsHeating,
			ValvePositions:         p.ValvePositions,
			MaxValvePositions:      p.MaxValvePositions,
			ReturnFlowTemperatures: p.ReturnFlowTemps,
			BatteryLevel:           p.Battery,
			SignalStrength:         p.RSSI,
			DeviceType:             p.DeviceType,
			SensorOffset:           p.SensorOffset,
			DisplayBrightness:      p.DispBright,
			SendInterval:           p.SendInterval,
			Deviation:              p.Deviation,
			ForceSendCount:         p.ForceSendCount,
			Locked:                 p.Locked == boolChecked,
			IsMainSensor:           p.IsMainSensor == boolChecked,
			TempModeTemporary:      p.TempModeTemporary == boolChecked,
			BatterySavingMode:      p.BatterySavingMode == boolChecked,
		})
	}
	return out, nil
}

// GetSensors fetches standalone temperature probes.
func (c *HTTPClient) GetSensors(ctx context.Context) ([]controme_bridge.Sensor, error) {
	endpoint := fmt.Sprintf("%s/get/json/v1/%d/sensors/", c.baseURL, c.houseID)

	var payload []sensorPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, &controme_bridge.TransportError{Op: "get sensors", Err: err}
	}

	out := make([]controme_bridge.Sensor, 0, len(payload))
	for _, p := range payload {
		out = append(out, controme_bridge.Sensor{
			SensorID:    p.SensorID,
			Name:        p.Description,
			RoomName:    p.RoomName,
			Temperature: p.Temperature,
		})
	}
	return out, nil
}

// SetRoomTemperature writes a room setpoint.
func (c *HTTPClient) SetRoomTemperature(ctx context.Context, roomID int, value float64) error {
	endpoint := fmt.Sprintf("%s/set/json/v1/%d/soll/%d/", c.baseURL, c.houseID, roomID)
	form := url.Values{"soll": {strconv.FormatFloat(value, 'f', 1, 64)}}
	if err := c.postForm(ctx, endpoint, form); err != nil {
		return &controme_bridge.TransportError{Op: "set room temperature", Err: err}
	}
	return nil
}

// SetThermostatParameter writes one setup parameter of a radio device,
// addressed by its device number and wire parameter name.
func (c *HTTPClient) SetThermostatParameter(ctx context.Context, deviceNum int, wireName, value string) error {
	endpoint := fmt.Sprintf("%s/set/json/v1/%d/rfsetup/%d/", c.baseURL, c.houseID, deviceNum)
	form := url.Values{wireName: {value}}
	if err := c.postForm(ctx, endpoint, form); err != nil {
		return &controme_bridge.TransportError{Op: "set " + wireName, Err: err}
	}
	return nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *HTTPClient) postForm(ctx context.Context, endpoint string, form url.Values) error {
	// The gateway expects the account credentials as form fields on writes.
	form.Set("user", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return nil
}
