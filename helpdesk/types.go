/*
Package helpdesk is the support-ticket domain over the SLA engine.

PURPOSE:
  Binds the generic SLA computations in the sla package to the product's
  vocabulary: tickets, severities, first responses, resolutions. The engine
  knows nothing about tickets; this package knows nothing about how
  deadlines are computed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Severity: Urgent / High / Medium / Low
  - PolicySet: One PriorityPolicy per severity
  - Ticket: The request record with its lifecycle timestamps

SEE ALSO:
  - policies.go: Preset policy sets and calendars
  - evaluate.go: Ticket-level SLA evaluation
  - report.go: Compliance reporting
*/
package helpdesk

import (
	"fmt"
	"time"

	"github.com/warp/sla-engine/sla"
)

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityUrgent Severity = "urgent"
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severities lists all severities in descending urgency order.
func Severities() []Severity {
	return []Severity{SeverityUrgent, SeverityHigh, SeverityMedium, SeverityLow}
}

// ParseSeverity validates a severity string.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityUrgent, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// =============================================================================
// POLICY SET - One policy per severity
// =============================================================================

// PolicySet maps each severity to its SLA policy. Severities absent from
// the map do not participate in SLA tracking.
type PolicySet map[Severity]sla.PriorityPolicy

// Validate checks every policy in the set.
func (ps PolicySet) Validate() error {
	for sev, policy := range ps {
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("severity %s: %w", sev, err)
		}
	}
	return nil
}

// For returns the policy for a severity. A missing severity behaves as a
// disabled policy.
func (ps PolicySet) For(sev Severity) sla.PriorityPolicy {
	if policy, ok := ps[sev]; ok {
		return policy
	}
	return sla.PriorityPolicy{Enabled: false}
}

// =============================================================================
// TICKET - The tracked request record
// =============================================================================

// Ticket is the request record whose SLA clocks this system tracks. The
// lifecycle (creation, storage, updates) is owned by the surrounding
// request-management code; evaluation treats a Ticket as a read-only
// snapshot.
type Ticket struct {
	ID              string
	Subject         string
	Requester       string
	Severity        Severity
	CreatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
}

// Open returns true while the ticket has no recorded resolution.
func (t *Ticket) Open() bool { return t.ResolvedAt == nil }

// RecordFirstResponse sets the first-response timestamp. Rejected if it
// precedes creation or a response was already recorded.
func (t *Ticket) RecordFirstResponse(at time.Time) error {
	if t.FirstResponseAt != nil {
		return fmt.Errorf("ticket %s: first response already recorded", t.ID)
	}
	if at.Before(t.CreatedAt) {
		return &sla.OrderingError{What: "first response before creation", Earlier: at, Later: t.CreatedAt}
	}
	t.FirstResponseAt = &at
	return nil
}

// RecordResolution sets the resolution timestamp. Rejected if it precedes
// creation or the ticket is already resolved.
func (t *Ticket) RecordResolution(at time.Time) error {
	if t.ResolvedAt != nil {
		return fmt.Errorf("ticket %s: already resolved", t.ID)
	}
	if at.Before(t.CreatedAt) {
		return &sla.OrderingError{What: "resolution before creation", Earlier: at, Later: t.CreatedAt}
	}
	if t.FirstResponseAt != nil && at.Before(*t.FirstResponseAt) {
		return &sla.OrderingError{What: "resolution before first response", Earlier: at, Later: *t.FirstResponseAt}
	}
	t.ResolvedAt = &at
	return nil
}
