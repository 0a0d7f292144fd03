/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes exposed over the wire, kept separate from domain types so
  the API contract can evolve independently of the engine.

CONVENTIONS:
  - Timestamps are RFC3339 strings
  - Optional timestamps are omitted when unset
  - SLA figures round to two decimals for display; the engine keeps full
    precision internally
*/
package api

import (
	"math"
	"time"

	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
)

// =============================================================================
// TICKETS
// =============================================================================

type CreateTicketRequest struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Requester string `json:"requester,omitempty"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at,omitempty"` // RFC3339; defaults to now
}

type TicketDTO struct {
	ID              string `json:"id"`
	Subject         string `json:"subject"`
	Requester       string `json:"requester,omitempty"`
	Severity        string `json:"severity"`
	CreatedAt       string `json:"created_at"`
	FirstResponseAt string `json:"first_response_at,omitempty"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
	Open            bool   `json:"open"`
}

func ticketToDTO(t *helpdesk.Ticket) TicketDTO {
	dto := TicketDTO{
		ID:        t.ID,
		Subject:   t.Subject,
		Requester: t.Requester,
		Severity:  string(t.Severity),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		Open:      t.Open(),
	}
	if t.FirstResponseAt != nil {
		dto.FirstResponseAt = t.FirstResponseAt.Format(time.RFC3339)
	}
	if t.ResolvedAt != nil {
		dto.ResolvedAt = t.ResolvedAt.Format(time.RFC3339)
	}
	return dto
}

// EventRequest records a lifecycle event (first response or resolution).
type EventRequest struct {
	At string `json:"at,omitempty"` // RFC3339; defaults to now
}

// =============================================================================
// SLA RESULTS
// =============================================================================

type SLAResultDTO struct {
	ResponseDeadline   string `json:"response_deadline,omitempty"`
	ResolutionDeadline string `json:"resolution_deadline,omitempty"`

	ResponseStatus   string `json:"response_status"`
	ResolutionStatus string `json:"resolution_status"`

	ResponseElapsedHours   *float64 `json:"response_elapsed_hours,omitempty"`
	ResolutionElapsedHours *float64 `json:"resolution_elapsed_hours,omitempty"`

	ResponseBusinessElapsedHours   *float64 `json:"response_business_elapsed_hours,omitempty"`
	ResolutionBusinessElapsedHours *float64 `json:"resolution_business_elapsed_hours,omitempty"`

	UsedBusinessHours bool   `json:"used_business_hours"`
	EvaluatedAt       string `json:"evaluated_at"`
}

func resultToDTO(r *sla.Result, evaluatedAt time.Time) SLAResultDTO {
	dto := SLAResultDTO{
		ResponseStatus:    string(r.ResponseStatus),
		ResolutionStatus:  string(r.ResolutionStatus),
		UsedBusinessHours: r.UsedBusinessHours,
		EvaluatedAt:       evaluatedAt.Format(time.RFC3339),
	}
	if !r.ResponseDeadline.IsZero() {
		dto.ResponseDeadline = r.ResponseDeadline.Format(time.RFC3339)
	}
	if !r.ResolutionDeadline.IsZero() {
		dto.ResolutionDeadline = r.ResolutionDeadline.Format(time.RFC3339)
	}
	dto.ResponseElapsedHours = roundHours(r.ResponseElapsedHours)
	dto.ResolutionElapsedHours = roundHours(r.ResolutionElapsedHours)
	dto.ResponseBusinessElapsedHours = roundHours(r.ResponseBusinessElapsedHours)
	dto.ResolutionBusinessElapsedHours = roundHours(r.ResolutionBusinessElapsedHours)
	return dto
}

func roundHours(h *float64) *float64 {
	if h == nil {
		return nil
	}
	rounded := math.Round(*h*100) / 100
	return &rounded
}

// =============================================================================
// REPORTS
// =============================================================================

type MetricReportDTO struct {
	Met               int    `json:"met"`
	Breached          int    `json:"breached"`
	AtRisk            int    `json:"at_risk"`
	Pending           int    `json:"pending"`
	NotApplicable     int    `json:"not_applicable"`
	CompliancePercent string `json:"compliance_percent"`
}

type ComplianceReportDTO struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Tickets    int             `json:"tickets"`
	Response   MetricReportDTO `json:"response"`
	Resolution MetricReportDTO `json:"resolution"`
}

func reportToDTO(r *helpdesk.ComplianceReport) ComplianceReportDTO {
	return ComplianceReportDTO{
		From:       r.Period.Start.Format(time.RFC3339),
		To:         r.Period.End.Format(time.RFC3339),
		Tickets:    r.Tickets,
		Response:   metricToDTO(r.Response),
		Resolution: metricToDTO(r.Resolution),
	}
}

func metricToDTO(m helpdesk.MetricReport) MetricReportDTO {
	return MetricReportDTO{
		Met:               m.Met,
		Breached:          m.Breached,
		AtRisk:            m.AtRisk,
		Pending:           m.Pending,
		NotApplicable:     m.NotApplicable,
		CompliancePercent: m.CompliancePercent.StringFixed(2),
	}
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
