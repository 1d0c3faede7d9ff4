package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// setValueRequest is the request body for PUT /devices/{id}/value.
type setValueRequest struct {
	Value *float64 `json:"value"`
}

// setAllRequest is the request body for POST /devices/all.
type setAllRequest struct {
	Status *bool `json:"status"`
}

// deviceResponse wraps a device with its display labels.
type deviceResponse struct {
	device.Device
	StatusLabel   string `json:"status_label"`
	CategoryLabel string `json:"category_label"`
}

func toDeviceResponse(d device.Device) deviceResponse {
	return deviceResponse{
		Device:        d,
		StatusLabel:   d.StatusLabel(),
		CategoryLabel: d.Category.Label(),
	}
}

func toDeviceResponses(devices []device.Device) []deviceResponse {
	out := make([]deviceResponse, len(devices))
	for i, d := range devices {
		out[i] = toDeviceResponse(d)
	}
	return out
}

// parseDeviceID reads the {id} URL parameter.
func parseDeviceID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// handleListDevices returns the catalogue, optionally narrowed by the
// category query parameter. The registry's view filter is not changed.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.controller.Registry().Devices()

	if raw := r.URL.Query().Get("category"); raw != "" {
		f, err := device.ParseFilter(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		devices = f.Apply(devices)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": toDeviceResponses(devices),
		"count":   len(devices),
	})
}

// handleDeviceCounts returns the number of devices per filter.
func (s *Server) handleDeviceCounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Registry().CountsByCategory())
}

// handleGetDevice returns one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDeviceID(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	d, err := s.controller.Registry().GetDevice(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

// handleToggleDevice flips one device's status.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDeviceID(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	d, err := s.controller.Toggle(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

// handleSetDeviceValue sets a device's slider value. Out-of-range values
// are clamped to the category range.
func (s *Server) handleSetDeviceValue(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDeviceID(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	var req setValueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	d, err := s.controller.SetValue(r.Context(), id, *req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

// handleSetAll turns every device on or off.
func (s *Server) handleSetAll(w http.ResponseWriter, r *http.Request) {
	var req setAllRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Status == nil {
		writeBadRequest(w, "status is required")
		return
	}

	devices := s.controller.SetAll(r.Context(), *req.Status)
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": toDeviceResponses(devices),
		"count":   len(devices),
	})
}

// handleAutoMode assigns every device a random status.
func (s *Server) handleAutoMode(w http.ResponseWriter, r *http.Request) {
	devices := s.controller.AutoMode(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": toDeviceResponses(devices),
		"count":   len(devices),
	})
}
