/*
Package factory provides JSON to Go SLA configuration conversion.

PURPOSE:
  Converts JSON policy-set and calendar definitions into validated
  helpdesk.PolicySet and sla.BusinessCalendar values. This enables SLA
  configuration without code changes - support admins define targets and
  business hours in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify SLA targets
  - Easy integration with an admin UI
  - Version control for policy definitions
  - Database storage of configuration documents

JSON SCHEMA:
  {
    "policies": {
      "urgent": {"response_hours": 1, "resolution_hours": 8,
                 "business_hours_only": false, "enabled": true},
      "high":   {"response_hours": 4, "resolution_hours": 24,
                 "business_hours_only": true, "enabled": true}
    },
    "calendar": {
      "window_start": "09:00",
      "window_end": "17:00",
      "working_days": ["monday", "tuesday", "wednesday", "thursday", "friday"],
      "timezone": "America/New_York",
      "holidays": [
        {"month": 12, "day": 25, "recurring": true, "label": "Christmas Day"},
        {"year": 2025, "month": 1, "day": 6, "label": "Observed Holiday"}
      ]
    }
  }

VALIDATION:
  Every structural problem surfaces as sla.ErrInvalidPolicy with field
  context, before any deadline computation can run.

SEE ALSO:
  - sla/types.go: The value objects produced here
  - helpdesk/policies.go: Code-based preset configurations
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the top-level configuration document.
type ConfigJSON struct {
	Policies map[string]PolicyJSON `json:"policies"`
	Calendar CalendarJSON          `json:"calendar"`
}

// PolicyJSON is the JSON representation of one severity's policy.
type PolicyJSON struct {
	ResponseHours     float64 `json:"response_hours"`
	ResolutionHours   float64 `json:"resolution_hours"`
	BusinessHoursOnly bool    `json:"business_hours_only"`
	Enabled           bool    `json:"enabled"`
}

// CalendarJSON is the JSON representation of a business calendar.
type CalendarJSON struct {
	WindowStart string        `json:"window_start"`
	WindowEnd   string        `json:"window_end"`
	WorkingDays []string      `json:"working_days"`
	Timezone    string        `json:"timezone"`
	Holidays    []HolidayJSON `json:"holidays,omitempty"`
}

// HolidayJSON represents one holiday entry. Year is omitted for recurring
// holidays.
type HolidayJSON struct {
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Recurring bool   `json:"recurring,omitempty"`
	Label     string `json:"label,omitempty"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON configuration into engine value objects.
type ConfigFactory struct{}

// NewConfigFactory creates a new config factory.
func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// ParseConfig parses a full JSON document into a policy set and calendar.
func (f *ConfigFactory) ParseConfig(jsonStr string) (helpdesk.PolicySet, *sla.BusinessCalendar, error) {
	var cfg ConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	set, err := f.PolicySetFromJSON(cfg.Policies)
	if err != nil {
		return nil, nil, err
	}
	cal, err := f.CalendarFromJSON(cfg.Calendar)
	if err != nil {
		return nil, nil, err
	}
	return set, cal, nil
}

// PolicySetFromJSON converts the policies section into a validated
// PolicySet keyed by severity.
func (f *ConfigFactory) PolicySetFromJSON(policies map[string]PolicyJSON) (helpdesk.PolicySet, error) {
	set := make(helpdesk.PolicySet, len(policies))
	for key, pj := range policies {
		sev, err := helpdesk.ParseSeverity(key)
		if err != nil {
			return nil, &sla.PolicyError{Field: "policies", Reason: err.Error()}
		}
		set[sev] = sla.PriorityPolicy{
			ResponseTargetHours:   pj.ResponseHours,
			ResolutionTargetHours: pj.ResolutionHours,
			BusinessHoursOnly:     pj.BusinessHoursOnly,
			Enabled:               pj.Enabled,
		}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// CalendarFromJSON converts the calendar section into a validated
// BusinessCalendar.
func (f *ConfigFactory) CalendarFromJSON(cj CalendarJSON) (*sla.BusinessCalendar, error) {
	start, err := sla.ParseLocalTime(cj.WindowStart)
	if err != nil {
		return nil, &sla.PolicyError{Field: "calendar.window_start", Reason: err.Error()}
	}
	end, err := sla.ParseLocalTime(cj.WindowEnd)
	if err != nil {
		return nil, &sla.PolicyError{Field: "calendar.window_end", Reason: err.Error()}
	}

	days := make(map[time.Weekday]bool, len(cj.WorkingDays))
	for _, name := range cj.WorkingDays {
		day, err := parseWeekday(name)
		if err != nil {
			return nil, &sla.PolicyError{Field: "calendar.working_days", Reason: err.Error()}
		}
		days[day] = true
	}

	holidays := make([]sla.Holiday, 0, len(cj.Holidays))
	for i, hj := range cj.Holidays {
		if !hj.Recurring && hj.Year == 0 {
			return nil, &sla.PolicyError{
				Field:  "calendar.holidays",
				Reason: fmt.Sprintf("entry %d (%s): non-recurring holiday requires a year", i, hj.Label),
			}
		}
		holidays = append(holidays, sla.Holiday{
			Year:      hj.Year,
			Month:     time.Month(hj.Month),
			Day:       hj.Day,
			Recurring: hj.Recurring,
			Label:     hj.Label,
		})
	}

	return sla.NewBusinessCalendar(sla.DailyWindow{Start: start, End: end}, days, cj.Timezone, holidays)
}

// =============================================================================
// SERIALIZATION (round trip back to JSON for storage)
// =============================================================================

// PolicySetToJSON converts a PolicySet back to its JSON schema form.
func PolicySetToJSON(set helpdesk.PolicySet) map[string]PolicyJSON {
	out := make(map[string]PolicyJSON, len(set))
	for sev, policy := range set {
		out[string(sev)] = PolicyJSON{
			ResponseHours:     policy.ResponseTargetHours,
			ResolutionHours:   policy.ResolutionTargetHours,
			BusinessHoursOnly: policy.BusinessHoursOnly,
			Enabled:           policy.Enabled,
		}
	}
	return out
}

// CalendarToJSON converts a BusinessCalendar back to its JSON schema form.
func CalendarToJSON(cal *sla.BusinessCalendar) CalendarJSON {
	days := make([]string, 0, len(cal.WorkingDays))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if cal.WorkingDays[day] {
			days = append(days, weekdayName(day))
		}
	}

	holidays := make([]HolidayJSON, 0, len(cal.Holidays))
	for _, h := range cal.Holidays {
		holidays = append(holidays, HolidayJSON{
			Year:      h.Year,
			Month:     int(h.Month),
			Day:       h.Day,
			Recurring: h.Recurring,
			Label:     h.Label,
		})
	}

	return CalendarJSON{
		WindowStart: cal.Window.Start.String(),
		WindowEnd:   cal.Window.End.String(),
		WorkingDays: days,
		Timezone:    cal.Timezone,
		Holidays:    holidays,
	}
}

func parseWeekday(name string) (time.Weekday, error) {
	switch name {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func weekdayName(day time.Weekday) string {
	return map[time.Weekday]string{
		time.Sunday:    "sunday",
		time.Monday:    "monday",
		time.Tuesday:   "tuesday",
		time.Wednesday: "wednesday",
		time.Thursday:  "thursday",
		time.Friday:    "friday",
		time.Saturday:  "saturday",
	}[day]
}
