package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist in the catalogue.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidCategory is returned when a category value is not recognised.
	ErrInvalidCategory = errors.New("device: invalid category")

	// ErrInvalidFilter is returned when a filter is neither All nor a known category.
	ErrInvalidFilter = errors.New("device: invalid filter")

	// ErrInvalidValue is returned when a value is not a finite number.
	ErrInvalidValue = errors.New("device: invalid value")

	// ErrInvalidDevice is returned when a catalogue entry is malformed.
	ErrInvalidDevice = errors.New("device: invalid device")

	// ErrNoValueControl is returned when setting a value on a device whose
	// category has no continuous control (Security).
	ErrNoValueControl = errors.New("device: category has no value control")
)

// IsInvalidArgument reports whether err is one of the argument errors a
// caller can fix by changing its input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidValue)
}
