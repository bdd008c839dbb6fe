// Package selection parses the free-text -s/--select option into a structured
// invocation filter.
package selection

import (
	"regexp"
	"strings"

	"github.com/dbsmedya/goreport/internal/logger"
)

// Mode identifies which invocation subset a report is restricted to.
type Mode int

const (
	// ModeNone applies no invocation filter.
	ModeNone Mode = iota
	// ModeLastInvocation restricts results to the most recent invocation.
	ModeLastInvocation
	// ModeInvocationID restricts results to one invocation id.
	ModeInvocationID
	// ModeInvocationTime restricts results to the invocation closest to a timestamp.
	ModeInvocationTime
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLastInvocation:
		return "last_invocation"
	case ModeInvocationID:
		return "invocation_id"
	case ModeInvocationTime:
		return "invocation_time"
	default:
		return "none"
	}
}

// Filter is an immutable invocation filter. The zero value is the unfiltered mode.
type Filter struct {
	mode  Mode
	value string
}

// None returns the unfiltered selection.
func None() Filter { return Filter{} }

// LastInvocation returns a filter selecting the most recent invocation.
func LastInvocation() Filter { return Filter{mode: ModeLastInvocation} }

// ByInvocationID returns a filter selecting a single invocation id.
func ByInvocationID(id string) Filter { return Filter{mode: ModeInvocationID, value: id} }

// ByInvocationTime returns a filter selecting the invocation at or before a time.
func ByInvocationTime(ts string) Filter { return Filter{mode: ModeInvocationTime, value: ts} }

// Mode returns the filter mode.
func (f Filter) Mode() Mode { return f.mode }

// Value returns the invocation id or time for the value-carrying modes.
func (f Filter) Value() string { return f.value }

// IsNone reports whether the filter leaves results unrestricted.
func (f Filter) IsNone() bool { return f.mode == ModeNone }

func (f Filter) String() string {
	if f.value == "" {
		return f.mode.String()
	}
	return f.mode.String() + ":" + f.value
}

var (
	lastInvocationPattern = regexp.MustCompile(`last_invocation`)
	invocationIDPattern   = regexp.MustCompile(`invocation_id:.*`)
	invocationTimePattern = regexp.MustCompile(`invocation_time:.*`)
)

// Parse turns a raw selection string into a Filter. Markers are checked in
// priority order: last_invocation, invocation_id:<v>, invocation_time:<v>.
// A non-empty string matching none of them is logged and treated as unfiltered.
func Parse(raw string, log *logger.Logger) Filter {
	if raw == "" {
		return None()
	}

	if lastInvocationPattern.MatchString(raw) {
		return LastInvocation()
	}
	if match := invocationIDPattern.FindString(raw); match != "" {
		return ByInvocationID(afterFirstColon(match))
	}
	if match := invocationTimePattern.FindString(raw); match != "" {
		return ByInvocationTime(afterFirstColon(match))
	}

	if log != nil {
		log.Errorw("Could not parse the given -s/--select", "select", raw)
	}
	return None()
}

func afterFirstColon(s string) string {
	_, value, _ := strings.Cut(s, ":")
	return value
}
