package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sla-engine/api"
	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
	"github.com/warp/sla-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	server  *httptest.Server
	store   *sqlite.Store
	handler *api.Handler
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	calendar, err := helpdesk.NineToFiveCalendar("UTC", nil)
	require.NoError(t, err)

	env := &testEnv{
		store: store,
		now:   time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC), // Monday
	}
	env.handler = api.NewHandler(store, helpdesk.StandardSupportPolicies(), calendar)
	env.handler.Clock = func() time.Time { return env.now }

	env.server = httptest.NewServer(api.NewRouter(env.handler))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func (e *testEnv) createTicket(t *testing.T, id, severity string) {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/tickets", api.CreateTicketRequest{
		ID:       id,
		Subject:  "printer on fire",
		Severity: severity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// TICKET ENDPOINTS
// =============================================================================

func TestAPI_CreateTicket_ReturnsInitialSLA(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/tickets", api.CreateTicketRequest{
		ID:       "t-1",
		Subject:  "Cannot log in",
		Severity: "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Ticket api.TicketDTO    `json:"ticket"`
		SLA    api.SLAResultDTO `json:"sla"`
	}
	require.NoError(t, json.Unmarshal(body, &out))

	assert.Equal(t, "t-1", out.Ticket.ID)
	assert.True(t, out.Ticket.Open)
	assert.Equal(t, "pending", out.SLA.ResponseStatus)
	assert.Equal(t, "pending", out.SLA.ResolutionStatus)
	// High severity: 4 business hours from Monday 10:00 -> 14:00
	assert.Equal(t, "2025-01-06T14:00:00Z", out.SLA.ResponseDeadline)
	assert.True(t, out.SLA.UsedBusinessHours)
}

func TestAPI_CreateTicket_InvalidSeverity(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/tickets", api.CreateTicketRequest{
		ID:       "t-1",
		Subject:  "x",
		Severity: "cosmic",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetTicketSLA_DriftsToAtRisk(t *testing.T) {
	// GIVEN: a high ticket with a 14:00 response deadline
	// WHEN: the clock moves to 80% of the budget with no response
	// THEN: the live evaluation reports at_risk

	env := newTestEnv(t)
	env.createTicket(t, "t-1", "high")

	env.now = time.Date(2025, time.January, 6, 13, 15, 0, 0, time.UTC)

	resp, body := env.do(t, http.MethodGet, "/api/tickets/t-1/sla", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.SLAResultDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "at_risk", out.ResponseStatus)
	assert.Equal(t, "pending", out.ResolutionStatus)
}

func TestAPI_GetTicketSLA_DoesNotWriteSnapshot(t *testing.T) {
	// GIVEN: a ticket whose snapshot was written at creation time
	// WHEN: the live SLA endpoint is queried at a later clock
	// THEN: the stored snapshot is untouched, so the sweep still sees the
	//       pre-transition state and logs the change itself

	env := newTestEnv(t)
	created := env.now
	env.createTicket(t, "t-1", "high")

	env.now = time.Date(2025, time.January, 6, 13, 15, 0, 0, time.UTC)
	resp, _ := env.do(t, http.MethodGet, "/api/tickets/t-1/sla", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap, err := env.store.GetSnapshot(context.Background(), "t-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.EvaluatedAt.Equal(created))
	assert.Equal(t, sla.StatusPending, snap.ResponseStatus)
}

func TestAPI_RecordResponse_ThenMet(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t, "t-1", "high")

	env.now = env.now.Add(time.Hour)
	resp, body := env.do(t, http.MethodPost, "/api/tickets/t-1/response", api.EventRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Ticket api.TicketDTO    `json:"ticket"`
		SLA    api.SLAResultDTO `json:"sla"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.Ticket.FirstResponseAt)
	assert.Equal(t, "met", out.SLA.ResponseStatus)

	// Recording again conflicts
	resp, _ = env.do(t, http.MethodPost, "/api/tickets/t-1/response", api.EventRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_RecordResponse_BeforeCreation_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t, "t-1", "high")

	resp, _ := env.do(t, http.MethodPost, "/api/tickets/t-1/response", api.EventRequest{
		At: "2025-01-06T08:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RecordResolution_ClosesTicket(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t, "t-1", "urgent")

	env.now = env.now.Add(2 * time.Hour)
	resp, body := env.do(t, http.MethodPost, "/api/tickets/t-1/resolve", api.EventRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Ticket api.TicketDTO    `json:"ticket"`
		SLA    api.SLAResultDTO `json:"sla"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Ticket.Open)
	// Urgent resolution budget is 8 wall-clock hours; resolved after 2
	assert.Equal(t, "met", out.SLA.ResolutionStatus)
}

func TestAPI_GetTicket_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/tickets/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CONFIGURATION ENDPOINTS
// =============================================================================

func TestAPI_PutConfig_ReplacesActiveConfig(t *testing.T) {
	env := newTestEnv(t)

	config := map[string]any{
		"policies": map[string]any{
			"high": map[string]any{
				"response_hours": 2, "resolution_hours": 12,
				"business_hours_only": false, "enabled": true,
			},
		},
		"calendar": map[string]any{
			"window_start": "08:00",
			"window_end":   "18:00",
			"working_days": []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			"timezone":     "UTC",
		},
	}

	resp, _ := env.do(t, http.MethodPut, "/api/config", config)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// New ticket uses the new 2h wall-clock response target
	env.createTicket(t, "t-1", "high")
	resp, body := env.do(t, http.MethodGet, "/api/tickets/t-1/sla", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.SLAResultDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "2025-01-06T12:00:00Z", out.ResponseDeadline)
	assert.False(t, out.UsedBusinessHours)
}

func TestAPI_PutConfig_InvalidRejected(t *testing.T) {
	env := newTestEnv(t)

	config := map[string]any{
		"policies": map[string]any{
			"high": map[string]any{"response_hours": -1, "resolution_hours": 12, "enabled": true},
		},
		"calendar": map[string]any{
			"window_start": "09:00", "window_end": "17:00",
			"working_days": []string{"monday"}, "timezone": "UTC",
		},
	}

	resp, _ := env.do(t, http.MethodPut, "/api/config", config)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPI_GetConfig_ReturnsActive(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Contains(t, out, "policies")
	assert.Contains(t, out, "calendar")
}

// =============================================================================
// REPORT ENDPOINT
// =============================================================================

func TestAPI_ComplianceReport(t *testing.T) {
	env := newTestEnv(t)

	// One ticket responded on time, one breached
	env.createTicket(t, "t-met", "urgent")
	env.createTicket(t, "t-breach", "urgent")

	env.now = env.now.Add(30 * time.Minute) // within the 1h urgent response target
	resp, _ := env.do(t, http.MethodPost, "/api/tickets/t-met/response", api.EventRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.now = env.now.Add(3 * time.Hour) // t-breach far past its response deadline

	resp, body := env.do(t, http.MethodGet, "/api/reports/compliance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.ComplianceReportDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Tickets)
	assert.Equal(t, 1, out.Response.Met)
	assert.Equal(t, 1, out.Response.Breached)
	assert.Equal(t, "50.00", out.Response.CompliancePercent)
}

func TestAPI_ComplianceReport_BadRange(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet,
		"/api/reports/compliance?from=2025-02-01T00:00:00Z&to=2025-01-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
