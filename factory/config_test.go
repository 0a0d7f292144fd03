package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sla-engine/factory"
	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
)

const validConfig = `{
  "policies": {
    "urgent": {"response_hours": 1, "resolution_hours": 8, "business_hours_only": false, "enabled": true},
    "high":   {"response_hours": 4, "resolution_hours": 24, "business_hours_only": true, "enabled": true},
    "low":    {"response_hours": 24, "resolution_hours": 80, "business_hours_only": true, "enabled": false}
  },
  "calendar": {
    "window_start": "09:00",
    "window_end": "17:30",
    "working_days": ["monday", "tuesday", "wednesday", "thursday", "friday"],
    "timezone": "UTC",
    "holidays": [
      {"month": 12, "day": 25, "recurring": true, "label": "Christmas Day"},
      {"year": 2025, "month": 1, "day": 6, "label": "Observed Holiday"}
    ]
  }
}`

func TestParseConfig_Valid(t *testing.T) {
	f := factory.NewConfigFactory()

	set, cal, err := f.ParseConfig(validConfig)
	require.NoError(t, err)

	urgent := set[helpdesk.SeverityUrgent]
	assert.Equal(t, 1.0, urgent.ResponseTargetHours)
	assert.False(t, urgent.BusinessHoursOnly)
	assert.True(t, urgent.Enabled)

	low := set[helpdesk.SeverityLow]
	assert.False(t, low.Enabled)

	assert.Equal(t, sla.LocalTime{Hour: 9}, cal.Window.Start)
	assert.Equal(t, sla.LocalTime{Hour: 17, Minute: 30}, cal.Window.End)
	assert.True(t, cal.WorkingDays[time.Monday])
	assert.False(t, cal.WorkingDays[time.Saturday])
	require.Len(t, cal.Holidays, 2)
	assert.True(t, cal.Holidays[0].Recurring)
	assert.Equal(t, 2025, cal.Holidays[1].Year)
}

func TestParseConfig_InvalidJSON(t *testing.T) {
	f := factory.NewConfigFactory()

	_, _, err := f.ParseConfig(`{"policies": `)
	assert.Error(t, err)
}

func TestPolicySetFromJSON_UnknownSeverity(t *testing.T) {
	f := factory.NewConfigFactory()

	_, err := f.PolicySetFromJSON(map[string]factory.PolicyJSON{
		"catastrophic": {ResponseHours: 1, ResolutionHours: 2, Enabled: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sla.ErrInvalidPolicy)
}

func TestPolicySetFromJSON_NegativeTarget(t *testing.T) {
	f := factory.NewConfigFactory()

	_, err := f.PolicySetFromJSON(map[string]factory.PolicyJSON{
		"high": {ResponseHours: -4, ResolutionHours: 24, Enabled: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sla.ErrInvalidPolicy)
}

func TestCalendarFromJSON_Invalid(t *testing.T) {
	f := factory.NewConfigFactory()

	tests := []struct {
		name string
		cj   factory.CalendarJSON
	}{
		{"bad window start", factory.CalendarJSON{WindowStart: "nine", WindowEnd: "17:00", WorkingDays: []string{"monday"}, Timezone: "UTC"}},
		{"inverted window", factory.CalendarJSON{WindowStart: "17:00", WindowEnd: "09:00", WorkingDays: []string{"monday"}, Timezone: "UTC"}},
		{"unknown weekday", factory.CalendarJSON{WindowStart: "09:00", WindowEnd: "17:00", WorkingDays: []string{"moonday"}, Timezone: "UTC"}},
		{"unknown zone", factory.CalendarJSON{WindowStart: "09:00", WindowEnd: "17:00", WorkingDays: []string{"monday"}, Timezone: "Nowhere/Here"}},
		{"fixed holiday without year", factory.CalendarJSON{WindowStart: "09:00", WindowEnd: "17:00", WorkingDays: []string{"monday"}, Timezone: "UTC",
			Holidays: []factory.HolidayJSON{{Month: 1, Day: 6}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.CalendarFromJSON(tc.cj)
			require.Error(t, err)
			assert.ErrorIs(t, err, sla.ErrInvalidPolicy)
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	// Parsed config serialized back and re-parsed yields the same values.

	f := factory.NewConfigFactory()
	set, cal, err := f.ParseConfig(validConfig)
	require.NoError(t, err)

	setJSON := factory.PolicySetToJSON(set)
	calJSON := factory.CalendarToJSON(cal)

	set2, err := f.PolicySetFromJSON(setJSON)
	require.NoError(t, err)
	cal2, err := f.CalendarFromJSON(calJSON)
	require.NoError(t, err)

	assert.Equal(t, set, set2)
	assert.Equal(t, cal.Window, cal2.Window)
	assert.Equal(t, cal.Timezone, cal2.Timezone)
	assert.Equal(t, cal.Holidays, cal2.Holidays)
}
