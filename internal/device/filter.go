package device

import (
	"fmt"
	"strings"
)

// Filter selects which devices are visible. It is either FilterAll or the
// identifier of a single Category.
type Filter string

// FilterAll shows every device.
const FilterAll Filter = "All"

// FilterFor returns the filter that shows only devices in c.
func FilterFor(c Category) Filter {
	return Filter(c)
}

// ParseFilter accepts "All" or any form ParseCategory accepts.
func ParseFilter(s string) (Filter, error) {
	if strings.EqualFold(strings.TrimSpace(s), string(FilterAll)) {
		return FilterAll, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return FilterFor(c), nil
}

// IsValid reports whether f is FilterAll or a known category.
func (f Filter) IsValid() bool {
	return f == FilterAll || Category(f).IsValid()
}

// Category returns the category selected by f. ok is false for FilterAll.
func (f Filter) Category() (c Category, ok bool) {
	if f == FilterAll {
		return "", false
	}
	return Category(f), true
}

// Label returns the display name of the filter.
func (f Filter) Label() string {
	if c, ok := f.Category(); ok {
		return c.Label()
	}
	return string(FilterAll)
}

// Matches reports whether d is visible under f.
func (f Filter) Matches(d Device) bool {
	c, ok := f.Category()
	return !ok || d.Category == c
}

// Apply returns the devices visible under f, preserving order.
func (f Filter) Apply(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if f.Matches(d) {
			out = append(out, d.Copy())
		}
	}
	return out
}

// Counts is the number of devices per filter. The FilterAll entry holds
// the total.
type Counts map[Filter]int

// CountByCategory tallies devices per category. Every category is present,
// with zero when it has no devices.
func CountByCategory(devices []Device) Counts {
	counts := make(Counts, len(AllCategories)+1)
	counts[FilterAll] = len(devices)
	for _, c := range AllCategories {
		counts[FilterFor(c)] = 0
	}
	for _, d := range devices {
		counts[FilterFor(d.Category)]++
	}
	return counts
}
