package service

import (
	"math"

	"controme_bridge"
)

// Default demand thresholds in percent of valve opening.
const (
	HighDemandThreshold = 80.0
	LowDemandThreshold  = 20.0
)

// RoomDemand names one room together with its average valve position.
type RoomDemand struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
}

// DemandSummary is the result of a threshold query: the count plus the
// matching rooms for transparency.
type DemandSummary struct {
	Count     int          `json:"count"`
	Threshold float64      `json:"threshold"`
	Rooms     []RoomDemand `json:"rooms,omitempty"`
}

// SystemAverage is the average over the union of all valve positions,
// truncated to a whole percent the way the gateway reports valves.
// ok is false when no thermostat has any valve.
func SystemAverage(s *controme_bridge.Snapshot) (int, bool) {
	sum, count := 0, 0
	for _, t := range s.Thermostats {
		for _, p := range t.ValvePositions {
			sum += p
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / count, true
}

// RoomAverage is the mean valve position of one thermostat's own valves,
// rounded to one decimal. ok is false when it has no valves.
func RoomAverage(t controme_bridge.Thermostat) (float64, bool) {
	avg, ok := roomAverageRaw(t)
	if !ok {
		return 0, false
	}
	return round1(avg), true
}

// RoomBasedSystemAverage averages the per-room averages, one per thermostat
// with at least one valve. Unlike SystemAverage it weights every room
// equally regardless of how many valves the room has; both numbers are
// reported side by side on purpose.
func RoomBasedSystemAverage(s *controme_bridge.Snapshot) (float64, bool) {
	sum, count := 0.0, 0
	for _, t := range s.Thermostats {
		if avg, ok := roomAverageRaw(t); ok {
			sum += avg
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return round1(sum / float64(count)), true
}

// HighDemandRooms lists thermostats whose room average strictly exceeds the
// threshold.
func HighDemandRooms(s *controme_bridge.Snapshot, threshold float64) DemandSummary {
	return demandRooms(s, threshold, func(avg float64) bool { return avg > threshold })
}

// LowDemandRooms lists thermostats whose room average falls strictly below
// the threshold.
func LowDemandRooms(s *controme_bridge.Snapshot, threshold float64) DemandSummary {
	return demandRooms(s, threshold, func(avg float64) bool { return avg < threshold })
}

// ActiveHeatingCount counts thermostats currently calling for heat.
func ActiveHeatingCount(s *controme_bridge.Snapshot) int {
	n := 0
	for _, t := range s.Thermostats {
		if t.IsHeating {
			n++
		}
	}
	return n
}

func demandRooms(s *controme_bridge.Snapshot, threshold float64, match func(float64) bool) DemandSummary {
	out := DemandSummary{Threshold: threshold}
	for _, t := range s.Thermostats {
		avg, ok := roomAverageRaw(t)
		if !ok || !match(avg) {
			continue
		}
		out.Count++
		out.Rooms = append(out.Rooms, RoomDemand{Name: t.Name, Average: round1(avg)})
	}
	return out
}

func roomAverageRaw(t controme_bridge.Thermostat) (float64, bool) {
	if len(t.ValvePositions) == 0 {
		return 0, false
	}
	sum := 0
	for _, p := range t.ValvePositions {
		sum += p
	}
	return float64(sum) / float64(len(t.ValvePositions)), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
