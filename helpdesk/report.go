/*
report.go - SLA compliance reporting

PURPOSE:
  Aggregates per-ticket SLA results into compliance figures for a reporting
  period: how many tickets met, breached, or are drifting toward each
  target, and the resulting compliance percentage per metric.

PRECISION:
  Counts and percentages use decimal arithmetic so report math stays exact
  when aggregated across thousands of tickets and re-aggregated across
  periods. The engine's own hour arithmetic stays float64; only the
  aggregate layer needs exact division.

SEE ALSO:
  - evaluate.go: Produces the per-ticket results aggregated here
*/
package helpdesk

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/sla-engine/sla"
)

// =============================================================================
// REPORT PERIOD
// =============================================================================

// ReportPeriod bounds a compliance report by ticket creation time.
// Start is inclusive, End is exclusive.
type ReportPeriod struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether a creation instant falls inside the period.
func (p ReportPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// MonthOf returns the calendar-month period containing the given instant,
// in that instant's location.
func MonthOf(t time.Time) ReportPeriod {
	year, month, _ := t.Date()
	start := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	return ReportPeriod{Start: start, End: start.AddDate(0, 1, 0)}
}

// =============================================================================
// COMPLIANCE REPORT
// =============================================================================

// MetricReport carries the per-status counts and compliance percentage for
// one SLA metric.
type MetricReport struct {
	Met           int
	Breached      int
	AtRisk        int
	Pending       int
	NotApplicable int

	// CompliancePercent = met / (met + breached) * 100, the fraction of
	// concluded outcomes that met the target. Tickets still in flight do
	// not count against compliance.
	CompliancePercent decimal.Decimal
}

func (m *MetricReport) tally(status sla.Status) {
	switch status {
	case sla.StatusMet:
		m.Met++
	case sla.StatusBreached:
		m.Breached++
	case sla.StatusAtRisk:
		m.AtRisk++
	case sla.StatusPending:
		m.Pending++
	case sla.StatusNotApplicable:
		m.NotApplicable++
	}
}

func (m *MetricReport) finalize() {
	concluded := m.Met + m.Breached
	if concluded == 0 {
		m.CompliancePercent = decimal.Zero
		return
	}
	m.CompliancePercent = decimal.NewFromInt(int64(m.Met)).
		Div(decimal.NewFromInt(int64(concluded))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// ComplianceReport is the aggregate output for one period.
type ComplianceReport struct {
	Period     ReportPeriod
	Tickets    int
	Response   MetricReport
	Resolution MetricReport
}

// BuildComplianceReport evaluates every ticket created inside the period
// and tallies both metrics. Tickets outside the period are skipped. Each
// evaluation is independent; errors abort the report because a partial
// tally would misstate compliance.
func BuildComplianceReport(set PolicySet, cal *sla.BusinessCalendar, tickets []*Ticket, period ReportPeriod, now time.Time) (*ComplianceReport, error) {
	report := &ComplianceReport{Period: period}

	for _, ticket := range tickets {
		if !period.Contains(ticket.CreatedAt) {
			continue
		}
		result, err := EvaluateTicket(set, cal, ticket, now)
		if err != nil {
			return nil, err
		}
		report.Tickets++
		report.Response.tally(result.ResponseStatus)
		report.Resolution.tally(result.ResolutionStatus)
	}

	report.Response.finalize()
	report.Resolution.finalize()
	return report, nil
}
