package session

import "errors"

// Validation and credential errors. Message maps each to the text shown
// on the login page.
var (
	ErrMissingFields     = errors.New("session: required fields missing")
	ErrMissingCredential = errors.New("session: username and password required")
	ErrUsernameTooShort  = errors.New("session: username too short")
	ErrPasswordTooShort  = errors.New("session: password too short")
	ErrPasswordMismatch  = errors.New("session: passwords do not match")
	ErrUsernameExists    = errors.New("session: username already exists")
	ErrUserNotFound      = errors.New("session: user not found")
	ErrIncorrectPassword = errors.New("session: incorrect password")
	ErrNotLoggedIn       = errors.New("session: no user logged in")
	ErrCorruptUsers      = errors.New("session: stored user list is corrupt")
)

var messages = map[error]string{
	ErrMissingFields:     "Please fill in all required fields",
	ErrMissingCredential: "Please enter both username and password",
	ErrUsernameTooShort:  "Username must be at least 3 characters long",
	ErrPasswordTooShort:  "Password must be at least 4 characters long",
	ErrPasswordMismatch:  "Passwords do not match",
	ErrUsernameExists:    "Username already exists. Please choose another.",
	ErrUserNotFound:      "Username not found. Please register first.",
	ErrIncorrectPassword: "Incorrect password",
	ErrNotLoggedIn:       "Please log in to continue",
}

// Message returns the user-facing text for err, or a generic message for
// errors not defined by this package.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return "Something went wrong. Please try again."
}

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrUsernameTooShort) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordMismatch)
}
