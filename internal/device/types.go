package device

import (
	"fmt"
	"math"
	"strings"
)

// Category classifies a device and determines which value control it has.
type Category string

const (
	// CategoryLighting covers lights with a brightness percentage.
	CategoryLighting Category = "Lighting"

	// CategoryClimateControl covers thermostats and air conditioners with a
	// target temperature in degrees Celsius.
	CategoryClimateControl Category = "ClimateControl"

	// CategorySecurity covers cameras and locks. Security devices have no
	// continuous value.
	CategorySecurity Category = "Security"

	// CategoryEntertainment covers TVs and speakers with a volume percentage.
	CategoryEntertainment Category = "Entertainment"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryLighting,
	CategoryClimateControl,
	CategorySecurity,
	CategoryEntertainment,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryLighting, CategoryClimateControl, CategorySecurity, CategoryEntertainment:
		return true
	}
	return false
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	if c == CategoryClimateControl {
		return "Climate Control"
	}
	return string(c)
}

// ParseCategory accepts either the identifier ("ClimateControl") or the
// label ("Climate Control"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	needle := strings.TrimSpace(s)
	for _, c := range AllCategories {
		if strings.EqualFold(needle, string(c)) || strings.EqualFold(needle, c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Range is the inclusive value range of a category's continuous control.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Clamp constrains v to the range.
func (r Range) Clamp(v float64) float64 {
	return math.Min(r.Max, math.Max(r.Min, v))
}

// Contains reports whether v is within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var categoryRanges = map[Category]Range{
	CategoryLighting:       {Min: 0, Max: 100, Unit: "%"},
	CategoryClimateControl: {Min: 16, Max: 30, Unit: "°C"},
	CategoryEntertainment:  {Min: 0, Max: 100, Unit: "%"},
}

// ValueRange returns the value range for the category. ok is false for
// categories without a continuous control.
func (c Category) ValueRange() (r Range, ok bool) {
	r, ok = categoryRanges[c]
	return r, ok
}

// HasValue reports whether devices in the category carry a value.
func (c Category) HasValue() bool {
	_, ok := categoryRanges[c]
	return ok
}

// Device is a simulated controllable device.
type Device struct {
	// ID is unique within the catalogue.
	ID int `json:"id"`

	Name     string   `json:"name"`
	Category Category `json:"category"`
	Icon     string   `json:"icon"`

	// Status is the on/off state. For lockable devices true means unlocked.
	Status bool `json:"status"`

	// Value is brightness (Lighting), target °C (ClimateControl) or volume
	// (Entertainment). Nil for Security devices.
	Value *float64 `json:"value"`

	// Lockable marks lock-type Security devices (Door Lock, Garage Door).
	Lockable bool `json:"lockable,omitempty"`
}

// Copy returns an independent copy of the device.
func (d Device) Copy() Device {
	if d.Value != nil {
		v := *d.Value
		d.Value = &v
	}
	return d
}

// StatusLabel returns the presentation label for the device status.
func (d Device) StatusLabel() string {
	if d.Lockable {
		if d.Status {
			return "Unlocked"
		}
		return "Locked"
	}
	if d.Status {
		return "ON"
	}
	return "OFF"
}

// Float returns a pointer to v, for building Device literals.
func Float(v float64) *float64 {
	return &v
}

// DefaultCatalog returns the eight-device starting catalogue. All devices
// start off.
func DefaultCatalog() []Device {
	return []Device{
		{ID: 1, Name: "Living Room Lights", Category: CategoryLighting, Icon: "💡", Value: Float(50)},
		{ID: 2, Name: "Thermostat", Category: CategoryClimateControl, Icon: "🌡️", Value: Float(22)},
		{ID: 3, Name: "Security Camera", Category: CategorySecurity, Icon: "📹"},
		{ID: 4, Name: "Smart TV", Category: CategoryEntertainment, Icon: "📺", Value: Float(30)},
		{ID: 5, Name: "Air Conditioner", Category: CategoryClimateControl, Icon: "❄️", Value: Float(24)},
		{ID: 6, Name: "Door Lock", Category: CategorySecurity, Icon: "🔒", Lockable: true},
		{ID: 7, Name: "Smart Speaker", Category: CategoryEntertainment, Icon: "🔊", Value: Float(40)},
		{ID: 8, Name: "Garage Door", Category: CategorySecurity, Icon: "🚗", Lockable: true},
	}
}
