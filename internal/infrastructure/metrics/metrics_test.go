package metrics

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
)

func TestRecordStats(t *testing.T) {
	m := New("smarthome")

	if v := testutil.ToFloat64(m.avgClimateTemp); !math.IsNaN(v) {
		t.Errorf("initial avg temp = %v, want NaN", v)
	}

	m.RecordStats(context.Background(), device.Stats{
		ActiveCount:    4,
		TotalCount:     8,
		AvgClimateTemp: device.Float(22),
		EnergyKWh:      6,
	}, time.Now())

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"active", testutil.ToFloat64(m.activeDevices), 4},
		{"total", testutil.ToFloat64(m.totalDevices), 8},
		{"energy", testutil.ToFloat64(m.energyKWh), 6},
		{"avg temp", testutil.ToFloat64(m.avgClimateTemp), 22},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	m.RecordStats(context.Background(), device.Stats{TotalCount: 8}, time.Now())
	if v := testutil.ToFloat64(m.avgClimateTemp); !math.IsNaN(v) {
		t.Errorf("avg temp with no active thermostat = %v, want NaN", v)
	}
}

func TestNotify(t *testing.T) {
	m := New("smarthome")

	m.Notify(context.Background(), dashboard.Notification{
		Op: dashboard.OpToggle,
		Changed: []device.Device{
			{ID: 1, Category: device.CategoryLighting},
		},
	})
	m.Notify(context.Background(), dashboard.Notification{
		Op: dashboard.OpSetAll,
		Changed: []device.Device{
			{ID: 1, Category: device.CategoryLighting},
			{ID: 3, Category: device.CategorySecurity},
		},
	})

	if v := testutil.ToFloat64(m.mutations.WithLabelValues("toggle")); v != 1 {
		t.Errorf("toggle mutations = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.mutations.WithLabelValues("set_all")); v != 1 {
		t.Errorf("set_all mutations = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.changedDevices.WithLabelValues("Lighting")); v != 2 {
		t.Errorf("lighting changes = %v, want 2", v)
	}
}

func TestMiddleware(t *testing.T) {
	m := New("smarthome")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "99" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/devices/1", "/devices/99", "/devices/99"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if n := testutil.CollectAndCount(m.requestTiming); n != 1 {
		t.Errorf("timing series = %d, want 1 (one route pattern)", n)
	}
	if v := testutil.ToFloat64(m.errorCounter.WithLabelValues("/devices/{id}", "404")); v != 2 {
		t.Errorf("404 count = %v, want 2", v)
	}
}

func TestHandler(t *testing.T) {
	m := New("smart-home")
	m.RecordStats(context.Background(), device.Stats{ActiveCount: 3, TotalCount: 8}, time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"smart_home_active_devices 3", "smart_home_devices 8", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
