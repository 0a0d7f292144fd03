/*
Package sla provides the core SLA computation engine.

PURPOSE:
  This package contains the pure functions that turn a ticket's creation
  time, a severity policy, and a business calendar into response/resolution
  deadlines and a compliance status. Everything here is deterministic:
  no clock reads, no I/O, no shared state. Callers pass "now" explicitly.

KEY CONCEPTS IN THIS FILE (types.go):
  - PriorityPolicy: Per-severity SLA targets (response/resolution budgets)
  - BusinessCalendar: Working days, daily window, timezone, holidays
  - Holiday: Fixed-date or annually recurring non-business day
  - Status: Closed enumeration of SLA states
  - Result: The full evaluation output for one ticket

DESIGN PRINCIPLES:
  1. Purity: Every function is a function of its explicit arguments
  2. Immutability: Policies and calendars are read-only snapshots per call
  3. Type Safety: Statuses are a closed enum, not loose strings
  4. Explicit Time: "now" is always a parameter, never time.Now()

USAGE:
  cal, _ := sla.NewBusinessCalendar(sla.DailyWindow{
      Start: sla.LocalTime{Hour: 9},
      End:   sla.LocalTime{Hour: 17},
  }, sla.Weekdays(), "America/New_York", nil)

  policy := sla.PriorityPolicy{
      ResponseTargetHours:   4,
      ResolutionTargetHours: 24,
      BusinessHoursOnly:     true,
      Enabled:               true,
  }

  result, err := sla.Evaluate(policy, cal, createdAt, nil, nil, now)

SEE ALSO:
  - calendar.go: Business-hours resolution and holiday matching
  - deadline.go: Budget-to-deadline computation
  - classify.go: Status classification
*/
package sla

import (
	"fmt"
	"time"
)

// =============================================================================
// STATUS - Closed enumeration of SLA states
// =============================================================================

type Status string

const (
	// StatusPending: budget still running, below the risk threshold.
	StatusPending Status = "pending"

	// StatusAtRisk: budget still running but elapsed time has crossed the
	// risk threshold fraction. Early warning before a breach.
	StatusAtRisk Status = "at_risk"

	// StatusMet: the event was recorded at or before its deadline.
	StatusMet Status = "met"

	// StatusBreached: the deadline passed without the event, or the event
	// was recorded after the deadline.
	StatusBreached Status = "breached"

	// StatusNotApplicable: the severity's policy is disabled; no deadlines
	// or statuses are computed. Distinct from pending.
	StatusNotApplicable Status = "not_applicable"
)

// Terminal returns true if the status can no longer change for a metric.
func (s Status) Terminal() bool {
	return s == StatusMet || s == StatusBreached || s == StatusNotApplicable
}

// =============================================================================
// METRIC - Which SLA clock is being tracked
// =============================================================================

type Metric string

const (
	MetricResponse   Metric = "response"
	MetricResolution Metric = "resolution"
)

// =============================================================================
// PRIORITY POLICY - Per-severity SLA targets
// =============================================================================

// PriorityPolicy defines the SLA budget for one severity level.
// Target hours are consumed in wall-clock time, or only during business
// hours when BusinessHoursOnly is set.
type PriorityPolicy struct {
	ResponseTargetHours   float64
	ResolutionTargetHours float64
	BusinessHoursOnly     bool
	Enabled               bool
}

// Validate checks the policy invariants. Negative targets block computation
// rather than being clamped.
func (p PriorityPolicy) Validate() error {
	if p.ResponseTargetHours < 0 {
		return &PolicyError{Field: "response_target_hours", Reason: fmt.Sprintf("must be non-negative, got %v", p.ResponseTargetHours)}
	}
	if p.ResolutionTargetHours < 0 {
		return &PolicyError{Field: "resolution_target_hours", Reason: fmt.Sprintf("must be non-negative, got %v", p.ResolutionTargetHours)}
	}
	return nil
}

// =============================================================================
// LOCAL TIME & DAILY WINDOW
// =============================================================================

// LocalTime is a time of day with minute granularity, interpreted in the
// calendar's timezone.
type LocalTime struct {
	Hour   int
	Minute int
}

func (lt LocalTime) MinuteOfDay() int { return lt.Hour*60 + lt.Minute }

func (lt LocalTime) Before(other LocalTime) bool { return lt.MinuteOfDay() < other.MinuteOfDay() }

func (lt LocalTime) String() string { return fmt.Sprintf("%02d:%02d", lt.Hour, lt.Minute) }

// ParseLocalTime parses "HH:MM" into a LocalTime.
func ParseLocalTime(s string) (LocalTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return LocalTime{}, fmt.Errorf("invalid local time %q (use HH:MM): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return LocalTime{}, fmt.Errorf("invalid local time %q: out of range", s)
	}
	return LocalTime{Hour: h, Minute: m}, nil
}

// DailyWindow is the business-hours window for a working day.
// Start is inclusive, End is exclusive.
type DailyWindow struct {
	Start LocalTime
	End   LocalTime
}

// =============================================================================
// HOLIDAY - Non-business day exception
// =============================================================================

// Holiday removes a date from the business calendar. A Recurring holiday
// matches its (Month, Day) pair every year; a fixed holiday matches exactly
// one (Year, Month, Day).
type Holiday struct {
	Month     time.Month
	Day       int
	Year      int // ignored when Recurring
	Recurring bool
	Label     string
}

// Matches reports whether the holiday falls on the given local date.
// A recurring Feb 29 holiday matches only in leap years; in other years the
// rule is inert rather than shifting to a neighboring date.
func (h Holiday) Matches(year int, month time.Month, day int) bool {
	if h.Recurring {
		if h.Month == time.February && h.Day == 29 && !isLeapYear(year) {
			return false
		}
		return month == h.Month && day == h.Day
	}
	return year == h.Year && month == h.Month && day == h.Day
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// =============================================================================
// BUSINESS CALENDAR - Working time definition for a policy domain
// =============================================================================

// BusinessCalendar defines when SLA budgets run for a tenant: a daily
// window in a named timezone, a weekday pattern, and holiday exceptions.
// Calendars are immutable after construction; treat replacement as
// copy-on-write if policy changes at runtime.
type BusinessCalendar struct {
	Window      DailyWindow
	WorkingDays map[time.Weekday]bool
	Timezone    string
	Holidays    []Holiday

	loc *time.Location
}

// NewBusinessCalendar builds and validates a calendar. The timezone must be
// a resolvable IANA zone name.
func NewBusinessCalendar(window DailyWindow, workingDays map[time.Weekday]bool, timezone string, holidays []Holiday) (*BusinessCalendar, error) {
	if !window.Start.Before(window.End) {
		return nil, &PolicyError{Field: "daily_window", Reason: fmt.Sprintf("start %s must be before end %s", window.Start, window.End)}
	}
	if len(workingDays) == 0 {
		return nil, &PolicyError{Field: "working_days", Reason: "at least one working day required"}
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &PolicyError{Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", timezone)}
	}
	for _, h := range holidays {
		if h.Day < 1 || h.Day > 31 || h.Month < time.January || h.Month > time.December {
			return nil, &PolicyError{Field: "holidays", Reason: fmt.Sprintf("invalid date %v %d (%s)", h.Month, h.Day, h.Label)}
		}
	}

	days := make(map[time.Weekday]bool, len(workingDays))
	for d, on := range workingDays {
		if on {
			days[d] = true
		}
	}
	if len(days) == 0 {
		return nil, &PolicyError{Field: "working_days", Reason: "at least one working day required"}
	}

	return &BusinessCalendar{
		Window:      window,
		WorkingDays: days,
		Timezone:    timezone,
		Holidays:    holidays,
		loc:         loc,
	}, nil
}

// Location returns the calendar's resolved timezone.
func (c *BusinessCalendar) Location() *time.Location { return c.loc }

// Weekdays returns the Monday-Friday working day set.
func Weekdays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

// EveryDay returns a seven-day working day set.
func EveryDay() map[time.Weekday]bool {
	days := Weekdays()
	days[time.Saturday] = true
	days[time.Sunday] = true
	return days
}

// =============================================================================
// RESULT - Full evaluation output for one ticket
// =============================================================================

// Result carries the deadlines, statuses, and supporting figures for both
// SLA metrics of a single ticket. Elapsed figures are wall-clock hours;
// business-hours elapsed is a secondary reporting figure populated only for
// business-hours policies.
type Result struct {
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time

	ResponseStatus   Status
	ResolutionStatus Status

	ResponseElapsedHours   *float64
	ResolutionElapsedHours *float64

	ResponseBusinessElapsedHours   *float64
	ResolutionBusinessElapsedHours *float64

	UsedBusinessHours bool
}

// Breached returns true if either metric is in breach.
func (r *Result) Breached() bool {
	return r.ResponseStatus == StatusBreached || r.ResolutionStatus == StatusBreached
}

// AtRisk returns true if either metric has crossed the risk threshold
// without yet breaching.
func (r *Result) AtRisk() bool {
	return r.ResponseStatus == StatusAtRisk || r.ResolutionStatus == StatusAtRisk
}
