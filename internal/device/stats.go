package device

import (
	"fmt"
	"math"
)

// EnergyPerActiveDevice is the simulated consumption of one active device.
const EnergyPerActiveDevice = 1.5

// Stats summarises the catalogue for the dashboard header.
type Stats struct {
	ActiveCount int `json:"active_count"`
	TotalCount  int `json:"total_count"`

	// AvgClimateTemp is the mean value of active ClimateControl devices.
	// Nil when none is active.
	AvgClimateTemp *float64 `json:"avg_climate_temp"`

	EnergyKWh float64 `json:"energy_kwh"`
}

// ComputeStats derives statistics from devices. It does not retain devices.
func ComputeStats(devices []Device) Stats {
	s := Stats{TotalCount: len(devices)}

	var tempSum float64
	var tempCount int
	for _, d := range devices {
		if !d.Status {
			continue
		}
		s.ActiveCount++
		if d.Category == CategoryClimateControl && d.Value != nil {
			tempSum += *d.Value
			tempCount++
		}
	}

	if tempCount > 0 {
		avg := tempSum / float64(tempCount)
		s.AvgClimateTemp = &avg
	}
	s.EnergyKWh = float64(s.ActiveCount) * EnergyPerActiveDevice
	return s
}

// AvgTempDisplay renders the average temperature rounded half away from
// zero, or "--" when no climate device is active.
func (s Stats) AvgTempDisplay() string {
	if s.AvgClimateTemp == nil {
		return "--"
	}
	return fmt.Sprintf("%d", int(math.Round(*s.AvgClimateTemp)))
}

// EnergyDisplay renders the energy estimate with one decimal place.
func (s Stats) EnergyDisplay() string {
	return fmt.Sprintf("%.1f kWh", s.EnergyKWh)
}
