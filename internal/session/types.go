package session

import "time"

// Storage keys.
const (
	UsersKey       = "smartHomeUsers"
	CurrentUserKey = "currentUser"
)

const (
	minUsernameLength = 3
	minPasswordLength = 4
)

// User is a stored account.
type User struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Email     *string    `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// Info is a User without its password.
type Info struct {
	Username  string     `json:"username"`
	Email     *string    `json:"email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Info returns the public view of u.
func (u User) Info() Info {
	return Info{
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Email           string `json:"email,omitempty"`
}
