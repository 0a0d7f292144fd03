/*
policies.go - Pre-built SLA policy sets and calendars

PURPOSE:
  Ready-to-use configurations for common support arrangements. These are
  convenience constructors in typical helpdesk shapes; real deployments
  tune the numbers via the factory package's JSON configuration.

AVAILABLE PRESETS:
  StandardSupportPolicies:  Business-hours SLAs except urgent (24/7)
  AroundTheClockPolicies:   Wall-clock SLAs for all severities
  NineToFiveCalendar:       Mon-Fri 09:00-17:00 in a named zone
  USFederalHolidays:        Common fixed/recurring US holiday seed list

SEE ALSO:
  - types.go: PolicySet
  - factory/config.go: JSON-based configuration
*/
package helpdesk

import (
	"time"

	"github.com/warp/sla-engine/sla"
)

// =============================================================================
// POLICY SET PRESETS
// =============================================================================

// StandardSupportPolicies returns a typical tiered arrangement: urgent
// tickets run on the wall clock around the clock, everything else consumes
// budget only during business hours.
func StandardSupportPolicies() PolicySet {
	return PolicySet{
		SeverityUrgent: {
			ResponseTargetHours:   1,
			ResolutionTargetHours: 8,
			BusinessHoursOnly:     false,
			Enabled:               true,
		},
		SeverityHigh: {
			ResponseTargetHours:   4,
			ResolutionTargetHours: 24,
			BusinessHoursOnly:     true,
			Enabled:               true,
		},
		SeverityMedium: {
			ResponseTargetHours:   8,
			ResolutionTargetHours: 40,
			BusinessHoursOnly:     true,
			Enabled:               true,
		},
		SeverityLow: {
			ResponseTargetHours:   24,
			ResolutionTargetHours: 80,
			BusinessHoursOnly:     true,
			Enabled:               true,
		},
	}
}

// AroundTheClockPolicies returns wall-clock SLAs for every severity, for
// teams with follow-the-sun coverage.
func AroundTheClockPolicies() PolicySet {
	set := StandardSupportPolicies()
	for sev, policy := range set {
		policy.BusinessHoursOnly = false
		set[sev] = policy
	}
	return set
}

// =============================================================================
// CALENDAR PRESETS
// =============================================================================

// NineToFiveCalendar returns a Mon-Fri 09:00-17:00 calendar in the given
// zone with the given holidays.
func NineToFiveCalendar(timezone string, holidays []sla.Holiday) (*sla.BusinessCalendar, error) {
	return sla.NewBusinessCalendar(
		sla.DailyWindow{Start: sla.LocalTime{Hour: 9}, End: sla.LocalTime{Hour: 17}},
		sla.Weekdays(),
		timezone,
		holidays,
	)
}

// USFederalHolidays returns the fixed-date US federal holidays as recurring
// entries. Floating holidays (Thanksgiving, Memorial Day, Labor Day) depend
// on weekday rules this calendar model does not express; deployments add
// those per year as non-recurring entries.
func USFederalHolidays() []sla.Holiday {
	return []sla.Holiday{
		{Month: time.January, Day: 1, Recurring: true, Label: "New Year's Day"},
		{Month: time.June, Day: 19, Recurring: true, Label: "Juneteenth"},
		{Month: time.July, Day: 4, Recurring: true, Label: "Independence Day"},
		{Month: time.November, Day: 11, Recurring: true, Label: "Veterans Day"},
		{Month: time.December, Day: 25, Recurring: true, Label: "Christmas Day"},
	}
}
