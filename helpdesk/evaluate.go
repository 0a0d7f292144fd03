/*
evaluate.go - Ticket-level SLA evaluation

PURPOSE:
  Looks up the ticket's severity in the policy set and delegates to the
  engine. This is the single call sites use everywhere a ticket's SLA
  state is needed: creation, the periodic sweep, dashboards, reports.
*/
package helpdesk

import (
	"time"

	"github.com/warp/sla-engine/sla"
)

// EvaluateTicket computes the full SLA result for one ticket at the given
// reference time. A severity without a policy (or with a disabled one)
// yields not_applicable statuses. Evaluations of different tickets are
// independent and safe to run concurrently.
func EvaluateTicket(set PolicySet, cal *sla.BusinessCalendar, ticket *Ticket, now time.Time) (*sla.Result, error) {
	policy := set.For(ticket.Severity)
	return sla.Evaluate(policy, cal, ticket.CreatedAt, ticket.FirstResponseAt, ticket.ResolvedAt, now)
}
