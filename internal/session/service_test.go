package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	svc := NewService(store)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, store
}

func register(t *testing.T, svc *Service, username, password string) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
	})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{
			name:    "missing username",
			req:     RegisterRequest{Password: "abcd", ConfirmPassword: "abcd"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "whitespace username",
			req:     RegisterRequest{Username: "   ", Password: "abcd", ConfirmPassword: "abcd"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing confirmation",
			req:     RegisterRequest{Username: "alice", Password: "abcd"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "short username after trim",
			req:     RegisterRequest{Username: " al ", Password: "abcd", ConfirmPassword: "abcd"},
			wantErr: ErrUsernameTooShort,
		},
		{
			name:    "short password",
			req:     RegisterRequest{Username: "alice", Password: "abc", ConfirmPassword: "abc"},
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "mismatched passwords",
			req:     RegisterRequest{Username: "alice", Password: "abcd", ConfirmPassword: "abce"},
			wantErr: ErrPasswordMismatch,
		},
		{
			name: "valid",
			req:  RegisterRequest{Username: "alice", Password: "abcd", ConfirmPassword: "abcd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.Register(context.Background(), tt.req)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Register() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}
}

func TestRegister_StoresRecord(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	info, err := svc.Register(ctx, RegisterRequest{
		Username:        "  alice ",
		Password:        "secret",
		ConfirmPassword: "secret",
		Email:           " alice@example.com ",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if info.Username != "alice" || info.Email == nil || *info.Email != "alice@example.com" {
		t.Errorf("Register() = %+v", info)
	}

	raw, found, _ := store.Get(ctx, UsersKey)
	if !found {
		t.Fatal("users not stored")
	}
	var stored []map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored users not JSON: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d users, want 1", len(stored))
	}
	rec := stored[0]
	if rec["username"] != "alice" || rec["password"] != "secret" {
		t.Errorf("stored record = %v", rec)
	}
	if rec["lastLogin"] != nil {
		t.Errorf("lastLogin = %v, want null", rec["lastLogin"])
	}
	if _, ok := rec["createdAt"]; !ok {
		t.Error("createdAt missing")
	}

	// Registering does not log in.
	if svc.IsLoggedIn(ctx) {
		t.Error("IsLoggedIn() = true after Register")
	}
}

func TestRegister_NoEmailStoredAsNull(t *testing.T) {
	svc, store := newTestService(t)
	register(t, svc, "bob", "pass")

	raw, _, _ := store.Get(context.Background(), UsersKey)
	var stored []map[string]any
	json.Unmarshal([]byte(raw), &stored) //nolint:errcheck // checked by contents below
	if v, ok := stored[0]["email"]; !ok || v != nil {
		t.Errorf("email = %v (present %v), want null", v, ok)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "alice", "abcd")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice", Password: "wxyz", ConfirmPassword: "wxyz",
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Register(duplicate) error = %v, want ErrUsernameExists", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "alice", "abcd")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "empty username", username: " ", password: "abcd", wantErr: ErrMissingCredential},
		{name: "empty password", username: "alice", password: "", wantErr: ErrMissingCredential},
		{name: "unknown user", username: "carol", password: "abcd", wantErr: ErrUserNotFound},
		{name: "wrong password", username: "alice", password: "ABCD", wantErr: ErrIncorrectPassword},
		{name: "password not trimmed", username: "alice", password: "abcd ", wantErr: ErrIncorrectPassword},
		{name: "username trimmed", username: "  alice  ", password: "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Login() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogin_SetsCurrentUserAndLastLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "alice", "abcd")

	info, err := svc.Login(ctx, "alice", "abcd")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if info.LastLogin == nil || !info.LastLogin.Equal(fixedNow) {
		t.Errorf("LastLogin = %v, want %v", info.LastLogin, fixedNow)
	}

	username, ok := svc.CurrentUser(ctx)
	if !ok || username != "alice" {
		t.Errorf("CurrentUser() = %q, %v", username, ok)
	}

	me, err := svc.CurrentUserInfo(ctx)
	if err != nil {
		t.Fatalf("CurrentUserInfo() error = %v", err)
	}
	if me.LastLogin == nil {
		t.Error("lastLogin not persisted")
	}
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "alice", "abcd")
	svc.Login(ctx, "alice", "abcd") //nolint:errcheck // setup

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if svc.IsLoggedIn(ctx) {
		t.Error("IsLoggedIn() = true after Logout")
	}
	if _, err := svc.CurrentUserInfo(ctx); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("CurrentUserInfo() error = %v, want ErrNotLoggedIn", err)
	}

	// Second logout is harmless.
	if err := svc.Logout(ctx); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestCurrentUserInfo_StaleMarker(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.Set(ctx, CurrentUserKey, "ghost") //nolint:errcheck // memory store

	if !svc.IsLoggedIn(ctx) {
		t.Fatal("IsLoggedIn() = false with a marker present")
	}
	if _, err := svc.CurrentUserInfo(ctx); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("CurrentUserInfo() error = %v, want ErrUserNotFound", err)
	}
}

func TestCorruptUserList(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.Set(ctx, UsersKey, "{not json") //nolint:errcheck // memory store

	_, err := svc.Login(ctx, "alice", "abcd")
	if !errors.Is(err, ErrCorruptUsers) {
		t.Errorf("Login() error = %v, want ErrCorruptUsers", err)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingFields, "Please fill in all required fields"},
		{ErrUsernameTooShort, "Username must be at least 3 characters long"},
		{ErrPasswordTooShort, "Password must be at least 4 characters long"},
		{ErrPasswordMismatch, "Passwords do not match"},
		{ErrUsernameExists, "Username already exists. Please choose another."},
		{ErrMissingCredential, "Please enter both username and password"},
		{ErrUserNotFound, "Username not found. Please register first."},
		{ErrIncorrectPassword, "Incorrect password"},
		{errors.New("disk on fire"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
