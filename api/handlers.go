/*
handlers.go - HTTP API handlers for the SLA tracking system

PURPOSE:
  Exposes ticket lifecycle, SLA evaluation, configuration, and compliance
  reporting over REST. Handles HTTP request/response and JSON
  serialization, delegating all SLA math to the helpdesk and sla packages.

ENDPOINTS:
  Tickets:
    GET    /api/tickets               List all tickets
    POST   /api/tickets               Create ticket
    GET    /api/tickets/{id}          Get ticket details
    GET    /api/tickets/{id}/sla      Live SLA evaluation
    POST   /api/tickets/{id}/response Record first response
    POST   /api/tickets/{id}/resolve  Record resolution

  Configuration:
    GET    /api/config                Active policy set + calendar
    PUT    /api/config                Replace configuration

  Reports:
    GET    /api/reports/compliance    Compliance figures for a period

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (evaluation, reporting)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, ordering violations, invalid input
  - 404: Ticket not found
  - 409: Event already recorded
  - 422: Configuration rejected by validation
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - sweep.go: Background re-evaluation
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/sla-engine/factory"
	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
	"github.com/warp/sla-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.ConfigFactory

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time

	// Cached active configuration. Replaced wholesale on PUT /api/config
	// (copy-on-write: in-flight evaluations keep their snapshot).
	mu       sync.RWMutex
	policies helpdesk.PolicySet
	calendar *sla.BusinessCalendar
}

// NewHandler creates a new handler with the given store and an initial
// configuration.
func NewHandler(store *sqlite.Store, policies helpdesk.PolicySet, calendar *sla.BusinessCalendar) *Handler {
	return &Handler{
		Store:    store,
		Factory:  factory.NewConfigFactory(),
		Clock:    time.Now,
		policies: policies,
		calendar: calendar,
	}
}

// LoadConfig replaces the cached configuration with the stored document if
// one exists. Call at startup.
func (h *Handler) LoadConfig(ctx context.Context) error {
	doc, err := h.Store.GetConfig(ctx)
	if err != nil {
		return err
	}
	if doc == "" {
		return nil
	}
	set, cal, err := h.Factory.ParseConfig(doc)
	if err != nil {
		return fmt.Errorf("stored config is invalid: %w", err)
	}
	h.setConfig(set, cal)
	return nil
}

func (h *Handler) setConfig(set helpdesk.PolicySet, cal *sla.BusinessCalendar) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.policies = set
	h.calendar = cal
}

func (h *Handler) config() (helpdesk.PolicySet, *sla.BusinessCalendar) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.policies, h.calendar
}

// =============================================================================
// TICKET HANDLERS
// =============================================================================

// ListTickets returns all tickets.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.ListTickets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}

	dtos := make([]TicketDTO, len(tickets))
	for i, t := range tickets {
		dtos[i] = ticketToDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTicket returns a single ticket.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ticketToDTO(ticket))
}

// CreateTicket creates a new ticket and returns it with its initial SLA
// evaluation.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "id and subject are required", nil)
		return
	}

	severity, err := helpdesk.ParseSeverity(req.Severity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid severity", err)
		return
	}

	now := h.Clock()
	createdAt := now
	if req.CreatedAt != "" {
		createdAt, err = time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid created_at (use RFC3339)", err)
			return
		}
	}

	ticket := &helpdesk.Ticket{
		ID:        req.ID,
		Subject:   req.Subject,
		Requester: req.Requester,
		Severity:  severity,
		CreatedAt: createdAt,
	}

	set, cal := h.config()
	result, err := helpdesk.EvaluateTicket(set, cal, ticket, now)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	if err := h.Store.SaveTicket(r.Context(), ticket); err != nil {
		writeError(w, http.StatusConflict, "Failed to create ticket", err)
		return
	}
	h.persistSnapshot(r, ticket.ID, result, now)

	writeJSON(w, http.StatusCreated, struct {
		Ticket TicketDTO    `json:"ticket"`
		SLA    SLAResultDTO `json:"sla"`
	}{ticketToDTO(ticket), resultToDTO(result, now)})
}

// GetTicketSLA evaluates the ticket's SLA state right now. Read-only:
// snapshots are written by the mutating handlers and the sweep, so a GET
// cannot pre-empt the sweep's transition logging.
func (h *Handler) GetTicketSLA(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}

	now := h.Clock()
	set, cal := h.config()
	result, err := helpdesk.EvaluateTicket(set, cal, ticket, now)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToDTO(result, now))
}

// RecordResponse records the ticket's first response.
func (h *Handler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, func(ticket *helpdesk.Ticket, at time.Time) error {
		if err := ticket.RecordFirstResponse(at); err != nil {
			return err
		}
		return h.Store.SetFirstResponse(r.Context(), ticket.ID, at)
	})
}

// RecordResolution records the ticket's resolution.
func (h *Handler) RecordResolution(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, func(ticket *helpdesk.Ticket, at time.Time) error {
		if err := ticket.RecordResolution(at); err != nil {
			return err
		}
		return h.Store.SetResolution(r.Context(), ticket.ID, at)
	})
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request, record func(*helpdesk.Ticket, time.Time) error) {
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}

	var req EventRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	now := h.Clock()
	at := now
	if req.At != "" {
		var err error
		at, err = time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid at (use RFC3339)", err)
			return
		}
	}

	if err := record(ticket, at); err != nil {
		switch {
		case errors.Is(err, sla.ErrTimestampOrdering):
			writeError(w, http.StatusBadRequest, "Event timestamp out of order", err)
		case errors.Is(err, sqlite.ErrNotUpdatable):
			writeError(w, http.StatusConflict, "Event already recorded", err)
		default:
			writeError(w, http.StatusConflict, "Failed to record event", err)
		}
		return
	}

	set, cal := h.config()
	result, err := helpdesk.EvaluateTicket(set, cal, ticket, now)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	h.persistSnapshot(r, ticket.ID, result, now)

	writeJSON(w, http.StatusOK, struct {
		Ticket TicketDTO    `json:"ticket"`
		SLA    SLAResultDTO `json:"sla"`
	}{ticketToDTO(ticket), resultToDTO(result, now)})
}

func (h *Handler) loadTicket(w http.ResponseWriter, r *http.Request) (*helpdesk.Ticket, bool) {
	id := chi.URLParam(r, "id")
	ticket, err := h.Store.GetTicket(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ticket", err)
		return nil, false
	}
	if ticket == nil {
		writeError(w, http.StatusNotFound, "Ticket not found", nil)
		return nil, false
	}
	return ticket, true
}

// persistSnapshot stores the evaluation result; failures are non-fatal for
// the request that triggered the evaluation but are logged, since the sweep
// and dashboards read sla_snapshots.
func (h *Handler) persistSnapshot(r *http.Request, ticketID string, result *sla.Result, now time.Time) {
	err := h.Store.SaveSnapshot(r.Context(), sqlite.Snapshot{
		TicketID:           ticketID,
		ResponseStatus:     result.ResponseStatus,
		ResolutionStatus:   result.ResolutionStatus,
		ResponseDeadline:   result.ResponseDeadline,
		ResolutionDeadline: result.ResolutionDeadline,
		UsedBusinessHours:  result.UsedBusinessHours,
		EvaluatedAt:        now,
	})
	if err != nil {
		log.Printf("[API] Error saving snapshot for %s: %v", ticketID, err)
	}
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// GetConfig returns the active configuration document.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	set, cal := h.config()
	writeJSON(w, http.StatusOK, factory.ConfigJSON{
		Policies: factory.PolicySetToJSON(set),
		Calendar: factory.CalendarToJSON(cal),
	})
}

// PutConfig validates and replaces the active configuration.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	set, cal, err := h.Factory.ParseConfig(string(body))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Configuration rejected", err)
		return
	}

	if err := h.Store.SaveConfig(r.Context(), string(body), h.Clock()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist config", err)
		return
	}
	h.setConfig(set, cal)

	writeJSON(w, http.StatusOK, factory.ConfigJSON{
		Policies: factory.PolicySetToJSON(set),
		Calendar: factory.CalendarToJSON(cal),
	})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetComplianceReport aggregates SLA compliance for tickets created inside
// [from, to). Defaults to the current calendar month.
func (h *Handler) GetComplianceReport(w http.ResponseWriter, r *http.Request) {
	now := h.Clock()
	period := helpdesk.MonthOf(now)

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from (use RFC3339)", err)
			return
		}
		period.Start = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to (use RFC3339)", err)
			return
		}
		period.End = t
	}
	if !period.Start.Before(period.End) {
		writeError(w, http.StatusBadRequest, "from must be before to", nil)
		return
	}

	tickets, err := h.Store.ListTickets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}

	set, cal := h.config()
	report, err := helpdesk.BuildComplianceReport(set, cal, tickets, period, now)
	if err != nil {
		writeEvaluationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToDTO(report))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEvaluationError maps engine errors onto HTTP statuses: input
// problems are the caller's fault, configuration problems are ours.
func writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case sla.IsInputError(err):
		writeError(w, http.StatusBadRequest, "Invalid timestamps", err)
	case sla.IsConfigError(err):
		writeError(w, http.StatusInternalServerError, "SLA configuration error", err)
	default:
		writeError(w, http.StatusInternalServerError, "Evaluation failed", err)
	}
}
