package influxdb

import (
	"context"
	"strconv"
	"time"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
)

// Measurement names written by Recorder.
const (
	MeasurementStats       = "dashboard_stats"
	MeasurementDeviceState = "device_state"
)

// PointWriter is the subset of Client used by Recorder.
type PointWriter interface {
	Write(measurement string, tags map[string]string, fields map[string]any, at time.Time)
}

// Recorder turns dashboard activity into time-series points.
//
// It implements dashboard.StatsRecorder for the aggregate statistics and
// dashboard.Notifier for per-device state after each mutation.
type Recorder struct {
	w PointWriter
}

// NewRecorder creates a recorder writing through w.
func NewRecorder(w PointWriter) *Recorder {
	return &Recorder{w: w}
}

// RecordStats implements dashboard.StatsRecorder.
func (r *Recorder) RecordStats(_ context.Context, s device.Stats, at time.Time) {
	fields := map[string]any{
		"active_count": s.ActiveCount,
		"total_count":  s.TotalCount,
		"energy_kwh":   s.EnergyKWh,
	}
	if s.AvgClimateTemp != nil {
		fields["avg_climate_temp"] = *s.AvgClimateTemp
	}
	r.w.Write(MeasurementStats, nil, fields, at)
}

// Notify implements dashboard.Notifier by writing one point per changed
// device.
func (r *Recorder) Notify(_ context.Context, n dashboard.Notification) {
	for _, d := range n.Changed {
		r.writeDevice(d, string(n.Op), n.At)
	}
}

func (r *Recorder) writeDevice(d device.Device, op string, at time.Time) {
	tags := map[string]string{
		"device_id": strconv.Itoa(d.ID),
		"category":  string(d.Category),
		"op":        op,
	}
	fields := map[string]any{
		"status": d.Status,
	}
	if d.Value != nil {
		fields["value"] = *d.Value
	}
	r.w.Write(MeasurementDeviceState, tags, fields, at)
}
