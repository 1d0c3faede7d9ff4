package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/session"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is returned by a successful login.
type loginResponse struct {
	User    session.Info `json:"user"`
	Message string       `json:"message"`
}

// handleRegister creates an account. Registering does not log the user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req session.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	info, err := s.sessions.Register(r.Context(), req)
	if err != nil {
		if !session.IsValidation(err) && !errors.Is(err, session.ErrUsernameExists) {
			s.logger.Error("registration failed", "error", err)
		}
		writeSessionError(w, err)
		return
	}

	s.logger.Info("user registered", "username", info.Username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    info,
		"message": "Account created successfully! Redirecting to login...",
	})
}

// handleLogin checks the credentials, marks the user as current and
// initialises the dashboard from the stored snapshot.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	info, err := s.sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Info("login failed", "username", req.Username, "reason", err)
		writeSessionError(w, err)
		return
	}

	if err := s.controller.Init(ctx); err != nil && !errors.Is(err, dashboard.ErrNotAuthenticated) {
		s.logger.Warn("dashboard init after login failed", "error", err)
	}

	s.logger.Info("user logged in", "username", info.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    info,
		Message: "Login successful! Redirecting...",
	})
}

// handleLogout clears the current user.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		s.logger.Error("logout failed", "error", err)
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the logged-in account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.CurrentUserInfo(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
