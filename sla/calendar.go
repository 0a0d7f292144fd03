/*
calendar.go - Business-hours resolution

PURPOSE:
  Answers two questions about an instant against a BusinessCalendar:
  is it inside business hours, and if not, when do business hours next
  begin. Also measures elapsed business hours between two instants for
  reporting.

BOUNDARY RULES:
  - Window start is inclusive: an instant exactly at 09:00 is business.
  - Window end is exclusive: an instant exactly at 17:00 is NOT business.
  - A day is fully non-business if its weekday is not a working day or
    any holiday matches its local date.

BOUNDED SEARCH:
  nextBusinessInstant scans forward at most maxLookaheadDays (400) local
  days. A calendar that offers no window in that span (e.g. every day a
  holiday) yields NoBusinessTimeError instead of looping forever. 400 days
  covers any legal weekday/holiday configuration with a full year to spare.

DST:
  Window instants are built with time.Date in the calendar's zone, so a
  window start that falls inside a spring-forward gap normalizes to the
  first valid instant. All duration arithmetic is instant-based, so budgets
  spanning a transition neither gain nor lose an hour.

SEE ALSO:
  - types.go: BusinessCalendar, Holiday, DailyWindow
  - deadline.go: Consumes windows day by day
*/
package sla

import (
	"time"
)

// maxLookaheadDays bounds the forward search for a business window.
const maxLookaheadDays = 400

// IsBusinessInstant reports whether the instant falls within business hours:
// its local weekday is a working day, no holiday matches the local date,
// and its local time-of-day is inside [window start, window end).
func (c *BusinessCalendar) IsBusinessInstant(t time.Time) bool {
	local := t.In(c.loc)
	if !c.isBusinessDay(local) {
		return false
	}
	start, end := c.windowBounds(local)
	return !t.Before(start) && t.Before(end)
}

// NextBusinessInstant returns the earliest business instant at or after t.
// If t is already within business hours it is returned unchanged. The
// search is bounded; a calendar with no reachable window fails with
// NoBusinessTimeError.
func (c *BusinessCalendar) NextBusinessInstant(t time.Time) (time.Time, error) {
	local := t.In(c.loc)

	for i := 0; i <= maxLookaheadDays; i++ {
		day := local.AddDate(0, 0, i)
		if !c.isBusinessDay(day) {
			continue
		}
		start, end := c.windowBounds(day)
		if i == 0 {
			if !t.Before(end) {
				// Past today's window; keep scanning.
				continue
			}
			if t.Before(start) {
				return start, nil
			}
			return t, nil
		}
		return start, nil
	}

	return time.Time{}, &NoBusinessTimeError{From: t, LookaheadDays: maxLookaheadDays}
}

// BusinessHoursBetween measures how many business hours elapse between from
// and to. Used as a secondary reporting figure; risk fractions stay
// wall-clock. Returns 0 when to is not after from.
func (c *BusinessCalendar) BusinessHoursBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}

	var hours float64
	day := from.In(c.loc)
	for !c.startOfDay(day).After(to.In(c.loc)) {
		if c.isBusinessDay(day) {
			start, end := c.windowBounds(day)
			if start.Before(from) {
				start = from
			}
			if end.After(to) {
				end = to
			}
			if end.After(start) {
				hours += end.Sub(start).Hours()
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return hours
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// isBusinessDay checks the weekday pattern and holiday list for the local
// date of the given time.
func (c *BusinessCalendar) isBusinessDay(local time.Time) bool {
	if !c.WorkingDays[local.Weekday()] {
		return false
	}
	year, month, day := local.Date()
	for _, h := range c.Holidays {
		if h.Matches(year, month, day) {
			return false
		}
	}
	return true
}

// windowBounds returns the window start and end instants for the local day
// containing the given local time.
func (c *BusinessCalendar) windowBounds(local time.Time) (time.Time, time.Time) {
	year, month, day := local.Date()
	start := time.Date(year, month, day, c.Window.Start.Hour, c.Window.Start.Minute, 0, 0, c.loc)
	end := time.Date(year, month, day, c.Window.End.Hour, c.Window.End.Minute, 0, 0, c.loc)
	return start, end
}

func (c *BusinessCalendar) startOfDay(local time.Time) time.Time {
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, c.loc)
}
