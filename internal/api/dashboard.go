package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
)

// setFilterRequest is the request body for PUT /filter.
type setFilterRequest struct {
	Filter string `json:"filter"`
}

// statsResponse carries the raw statistics and their display strings.
type statsResponse struct {
	device.Stats
	AvgTempDisplay string `json:"avg_temp_display"`
	EnergyDisplay  string `json:"energy_display"`
	Title          string `json:"title"`
}

func toStatsResponse(st device.Stats) statsResponse {
	return statsResponse{
		Stats:          st,
		AvgTempDisplay: st.AvgTempDisplay(),
		EnergyDisplay:  st.EnergyDisplay(),
		Title:          fmt.Sprintf("(%d) Active Devices - Smart Home", st.ActiveCount),
	}
}

// dashboardResponse is the full view rendered by the browser UI.
type dashboardResponse struct {
	User        string           `json:"user"`
	Online      bool             `json:"online"`
	Persistent  bool             `json:"persistent"`
	Filter      device.Filter    `json:"filter"`
	FilterLabel string           `json:"filter_label"`
	Devices     []deviceResponse `json:"devices"`
	Counts      device.Counts    `json:"counts"`
	Stats       statsResponse    `json:"stats"`
	LastUpdated string           `json:"last_updated,omitempty"`
}

func toDashboardResponse(v dashboard.View) dashboardResponse {
	resp := dashboardResponse{
		User:        v.User,
		Online:      v.Online,
		Persistent:  v.Persistent,
		Filter:      v.Filter,
		FilterLabel: v.Filter.Label(),
		Devices:     toDeviceResponses(v.Devices),
		Counts:      v.Counts,
		Stats:       toStatsResponse(v.Stats),
	}
	if !v.LastUpdated.IsZero() {
		resp.LastUpdated = v.LastUpdated.UTC().Format(time.RFC3339)
	}
	return resp
}

// handleDashboard returns the full dashboard view.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDashboardResponse(s.controller.View(r.Context())))
}

// handleStats returns the current statistics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatsResponse(s.controller.Registry().ComputeStats()))
}

// handleSetFilter changes the view filter and returns the new view.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req setFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	f, err := device.ParseFilter(req.Filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.controller.SetFilter(f); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(s.controller.View(r.Context())))
}

// handleSaveSnapshot persists the current state immediately.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.SaveSnapshot(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// handleLoadSnapshot re-applies the stored snapshot onto the catalogue.
func (s *Server) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	restored := s.controller.LoadSnapshot(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"restored":  restored,
		"dashboard": toDashboardResponse(s.controller.View(r.Context())),
	})
}
