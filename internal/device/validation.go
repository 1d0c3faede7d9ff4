package device

import (
	"fmt"
	"math"
	"strings"
)

const maxNameLength = 100

// ValidateValue checks that v is a finite number.
func ValidateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return nil
}

// ValidateDevice checks a single catalogue entry.
func ValidateDevice(d Device) error {
	if d.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidDevice, d.ID)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("%w: device %d has no name", ErrInvalidDevice, d.ID)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: device %d name exceeds %d characters", ErrInvalidDevice, d.ID, maxNameLength)
	}
	if !d.Category.IsValid() {
		return fmt.Errorf("%w: device %d: %q", ErrInvalidCategory, d.ID, d.Category)
	}

	r, hasRange := d.Category.ValueRange()
	switch {
	case !hasRange && d.Value != nil:
		return fmt.Errorf("%w: %s device %d must not carry a value", ErrInvalidDevice, d.Category, d.ID)
	case hasRange && d.Value == nil:
		return fmt.Errorf("%w: %s device %d requires a value", ErrInvalidDevice, d.Category, d.ID)
	case hasRange:
		if err := ValidateValue(*d.Value); err != nil {
			return err
		}
		if !r.Contains(*d.Value) {
			return fmt.Errorf("%w: device %d value %v outside [%v, %v]", ErrInvalidValue, d.ID, *d.Value, r.Min, r.Max)
		}
	}
	if d.Lockable && d.Category != CategorySecurity {
		return fmt.Errorf("%w: only security devices can be lockable", ErrInvalidDevice)
	}
	return nil
}

// ValidateCatalog checks every entry and that IDs are unique.
func ValidateCatalog(devices []Device) error {
	seen := make(map[int]struct{}, len(devices))
	for _, d := range devices {
		if err := ValidateDevice(d); err != nil {
			return err
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidDevice, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// ClampValue constrains v to the category range. ok is false when the
// category has no value control.
func ClampValue(c Category, v float64) (clamped float64, ok bool) {
	r, ok := c.ValueRange()
	if !ok {
		return 0, false
	}
	return r.Clamp(v), true
}
