package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

// Filters is a conjunction of independent predicates over the device list.
// Predicates run in a fixed order (regex, services, tags, query) but
// combine by intersection, so order only affects short-circuiting.
type Filters struct {
	// Query is a case-insensitive substring matched against name, host
	// and description.
	Query string

	// Regex is matched case-insensitively against name, host and
	// description.
	Regex string

	// Services is a comma-separated list; every service must be present
	// on the device, case-insensitively.
	Services string

	// Tags is a comma-separated list of "key:value" tokens; every tag
	// must be present on the device, case-insensitively.
	Tags string
}

// IsZero reports whether no filter is set at all. Callers use this to skip
// the predicate pipeline entirely, which is distinct from filters that
// happen to match everything.
func (f Filters) IsZero() bool {
	return f.Query == "" && f.Regex == "" && f.Services == "" && f.Tags == ""
}

// Validate reports whether the regex filter compiles. Called up front so a
// bad expression is a user error, not an empty result set.
func (f Filters) Validate() error {
	if f.Regex == "" {
		return nil
	}
	if _, err := regexp.Compile("(?i)" + f.Regex); err != nil {
		return fmt.Errorf("invalid filter expression %q: %w", f.Regex, err)
	}
	return nil
}

// Apply evaluates the filter set against the device list. With no filters
// set the input is returned unchanged. An empty result is not an error.
func (f Filters) Apply(devices []model.Device) ([]model.Device, error) {
	if f.IsZero() {
		return devices, nil
	}

	results := devices

	if f.Regex != "" {
		pattern, err := regexp.Compile("(?i)" + f.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression %q: %w", f.Regex, err)
		}
		results = keep(results, func(d model.Device) bool {
			return pattern.MatchString(d.Name) || pattern.MatchString(d.Host) || pattern.MatchString(d.Description)
		})
	}

	if f.Services != "" {
		required := model.SplitList(strings.ToUpper(f.Services))
		results = keep(results, func(d model.Device) bool {
			for _, svc := range required {
				if !d.HasService(svc) {
					return false
				}
			}
			return true
		})
	}

	if f.Tags != "" {
		required := model.SplitList(strings.ToLower(f.Tags))
		results = keep(results, func(d model.Device) bool {
			for _, tag := range required {
				if !d.HasTag(tag) {
					return false
				}
			}
			return true
		})
	}

	if f.Query != "" {
		q := strings.ToLower(f.Query)
		results = keep(results, func(d model.Device) bool {
			return containsFold(d.Name, q) || containsFold(d.Host, q) || containsFold(d.Description, q)
		})
	}

	return results, nil
}

func keep(devices []model.Device, pred func(model.Device) bool) []model.Device {
	var out []model.Device
	for _, d := range devices {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// containsFold expects needle already lower-cased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
