package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPlan is returned when an upgrade targets an unknown plan code.
var ErrInvalidPlan = errors.New("billing: invalid plan code")

// ErrInvalidUnits is returned when a quota check requests a non-positive
// number of units. Callers must never treat this as an allow.
var ErrInvalidUnits = errors.New("billing: requested units must be positive")

// Window identifies the time range over which usage is counted.
type Window int

const (
	// WindowAllTime counts usage over the project lifetime (trial).
	WindowAllTime Window = iota
	// WindowCurrentMonth counts usage since the first instant of the
	// current calendar month in UTC (all paid plans).
	WindowCurrentMonth
)

// String returns the window name for logging.
func (w Window) String() string {
	if w == WindowCurrentMonth {
		return "current_month"
	}
	return "all_time"
}

// UsageWindow returns the counting window for a plan code. Trial usage
// is a lifetime cap; every paid plan resets implicitly each calendar
// month by recomputing from scan timestamps.
func UsageWindow(code string) Window {
	if GetPlan(code).Code == PlanTrial {
		return WindowAllTime
	}
	return WindowCurrentMonth
}

// WindowStart returns the inclusive lower bound for counting usage and
// whether a bound exists at all. The month boundary is computed from now
// in UTC at call time, never cached.
func WindowStart(w Window, now time.Time) (time.Time, bool) {
	if w != WindowCurrentMonth {
		return time.Time{}, false
	}
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC), true
}

// Decision reports the outcome of a quota check.
type Decision struct {
	Allowed      bool   `json:"allowed"`       // Whether the requested units may proceed.
	Used         int    `json:"used"`          // Usage count supplied by the caller.
	Limit        int    `json:"limit"`         // Plan scan limit, or ScanLimitUnlimited.
	Remaining    int    `json:"remaining"`     // Units left, 0 when exhausted, ScanLimitUnlimited when uncapped.
	Unlimited    bool   `json:"unlimited"`     // Whether the plan has no cap.
	LimitReached bool   `json:"limit_reached"` // Whether used >= limit.
	Plan         string `json:"plan"`          // Resolved plan code.
}

// Evaluate decides whether a project on the given plan may perform
// requested more scans given its current usage count. The caller is
// responsible for supplying a count fetched over the plan's usage
// window; a count that cannot be fetched must be propagated as an
// error by the caller, never passed here as zero.
func Evaluate(code string, used, requested int) (Decision, error) {
	if requested < 1 {
		return Decision{}, fmt.Errorf("%w: got %d", ErrInvalidUnits, requested)
	}
	if used < 0 {
		used = 0
	}

	plan := GetPlan(code)
	if plan.Unlimited() {
		return Decision{
			Allowed:   true,
			Used:      used,
			Limit:     ScanLimitUnlimited,
			Remaining: ScanLimitUnlimited,
			Unlimited: true,
			Plan:      plan.Code,
		}, nil
	}

	remaining := plan.ScanLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:      remaining >= requested,
		Used:         used,
		Limit:        plan.ScanLimit,
		Remaining:    remaining,
		LimitReached: used >= plan.ScanLimit,
		Plan:         plan.Code,
	}, nil
}

// Upgrade validates a plan change and returns the new plan. Usage
// history is untouched: the new limit applies only to checks made after
// the project status is updated.
func Upgrade(current, next string) (Plan, error) {
	if !KnownPlan(next) {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidPlan, next)
	}
	_ = current // the previous plan places no constraint on the target
	return GetPlan(next), nil
}
