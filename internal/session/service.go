package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
)

// Service registers users and tracks who is logged in.
// All methods are safe for concurrent use.
type Service struct {
	mu    sync.Mutex
	store kvstore.Store
	now   func() time.Time
}

// NewService creates a service over store.
func NewService(store kvstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SetClock overrides the clock used for createdAt and lastLogin.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) loadUsers(ctx context.Context) ([]User, error) {
	raw, found, err := s.store.Get(ctx, UsersKey)
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	if !found || raw == "" {
		return nil, nil
	}
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUsers, err)
	}
	return users, nil
}

func (s *Service) saveUsers(ctx context.Context, users []User) error {
	if users == nil {
		users = []User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encoding users: %w", err)
	}
	if err := s.store.Set(ctx, UsersKey, string(data)); err != nil {
		return fmt.Errorf("writing users: %w", err)
	}
	return nil
}

func findUser(users []User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

// Register validates the form and appends a new account. It does not log
// the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Info, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case username == "" || req.Password == "" || req.ConfirmPassword == "":
		return Info{}, ErrMissingFields
	case utf8.RuneCountInString(username) < minUsernameLength:
		return Info{}, ErrUsernameTooShort
	case utf8.RuneCountInString(req.Password) < minPasswordLength:
		return Info{}, ErrPasswordTooShort
	case req.Password != req.ConfirmPassword:
		return Info{}, ErrPasswordMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return Info{}, err
	}
	if findUser(users, username) >= 0 {
		return Info{}, ErrUsernameExists
	}

	u := User{
		Username:  username,
		Password:  req.Password,
		CreatedAt: s.now().UTC(),
	}
	if email != "" {
		u.Email = &email
	}
	if err := s.saveUsers(ctx, append(users, u)); err != nil {
		return Info{}, err
	}
	return u.Info(), nil
}

// Login checks the credentials, marks the user as current and records the
// login time. The username is trimmed; the password is compared as given.
func (s *Service) Login(ctx context.Context, username, password string) (Info, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Info{}, ErrMissingCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return Info{}, err
	}
	i := findUser(users, username)
	if i < 0 {
		return Info{}, ErrUserNotFound
	}
	if users[i].Password != password {
		return Info{}, ErrIncorrectPassword
	}

	if err := s.store.Set(ctx, CurrentUserKey, username); err != nil {
		return Info{}, fmt.Errorf("writing current user: %w", err)
	}
	now := s.now().UTC()
	users[i].LastLogin = &now
	if err := s.saveUsers(ctx, users); err != nil {
		return Info{}, err
	}
	return users[i].Info(), nil
}

// Logout clears the current-user marker. Logging out when nobody is logged
// in is not an error.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("clearing current user: %w", err)
	}
	return nil
}

// CurrentUser returns the logged-in username. ok is false when nobody is
// logged in or the store cannot be read.
func (s *Service) CurrentUser(ctx context.Context) (username string, ok bool) {
	raw, found, err := s.store.Get(ctx, CurrentUserKey)
	if err != nil || !found || raw == "" {
		return "", false
	}
	return raw, true
}

// IsLoggedIn reports whether some user is identified.
func (s *Service) IsLoggedIn(ctx context.Context) bool {
	_, ok := s.CurrentUser(ctx)
	return ok
}

// CurrentUserInfo returns the account of the logged-in user.
func (s *Service) CurrentUserInfo(ctx context.Context) (Info, error) {
	username, ok := s.CurrentUser(ctx)
	if !ok {
		return Info{}, ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return Info{}, err
	}
	i := findUser(users, username)
	if i < 0 {
		return Info{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return users[i].Info(), nil
}
