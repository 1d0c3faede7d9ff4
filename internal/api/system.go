package api

import "net/http"

// SystemStatus drives the online/offline indicator.
type SystemStatus struct {
	Online     bool   `json:"online"`
	Label      string `json:"label"`
	Persistent bool   `json:"persistent"`
	User       string `json:"user,omitempty"`
}

// handleSystemStatus reports connectivity and the storage mode.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	view := s.controller.View(r.Context())

	status := SystemStatus{
		Online:     view.Online,
		Label:      "System Offline",
		Persistent: view.Persistent,
		User:       view.User,
	}
	if status.Online {
		status.Label = "System Online"
	}
	writeJSON(w, http.StatusOK, status)
}
