/*
deadline.go - Budget-to-deadline computation

PURPOSE:
  Turns a start instant and an hours budget into the deadline instant.
  Wall-clock budgets are plain duration addition. Business-hours budgets
  consume window capacity one working day at a time, skipping weekends
  and holidays mid-budget.

GUARANTEES:
  - Monotonic: a larger budget never produces an earlier deadline.
  - Idempotent: identical inputs yield identical outputs (no clock reads).
  - Zero budget returns the start snapped forward to the next business
    instant (or the start itself in wall-clock mode).

ALGORITHM (business-hours mode):
  1. cursor = nextBusinessInstant(start)
  2. available = hours remaining in cursor's window
  3. if remaining <= available: deadline = cursor + remaining
  4. else: subtract, hop to the next window, repeat

SEE ALSO:
  - calendar.go: Window resolution
  - classify.go: Consumes the deadlines produced here
*/
package sla

import (
	"time"
)

// hoursEpsilon absorbs float64 rounding when comparing remaining budget
// against window capacity, so a budget that exactly fills a window ends at
// the window boundary instead of hopping to the next day's start.
const hoursEpsilon = 1e-9

// ComputeDeadline returns the instant by which a budget of budgetHours,
// started at start, is exhausted. With businessHoursOnly false the calendar
// is not consulted at all. With it true, budget is consumed only inside the
// calendar's business windows; NoBusinessTimeError propagates if the
// calendar offers no usable window.
func ComputeDeadline(start time.Time, budgetHours float64, businessHoursOnly bool, cal *BusinessCalendar) (time.Time, error) {
	if budgetHours < 0 {
		return time.Time{}, &PolicyError{Field: "budget_hours", Reason: "must be non-negative"}
	}

	if !businessHoursOnly {
		return start.Add(hoursToDuration(budgetHours)), nil
	}

	cursor, err := cal.NextBusinessInstant(start)
	if err != nil {
		return time.Time{}, err
	}

	remaining := budgetHours
	for {
		_, windowEnd := cal.windowBounds(cursor.In(cal.loc))
		available := windowEnd.Sub(cursor).Hours()

		if remaining <= available+hoursEpsilon {
			return cursor.Add(hoursToDuration(remaining)), nil
		}

		remaining -= available
		cursor, err = cal.NextBusinessInstant(windowEnd)
		if err != nil {
			return time.Time{}, err
		}
	}
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
