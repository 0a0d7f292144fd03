/*
classify.go - SLA status classification

PURPOSE:
  Classifies a single metric (response or resolution) against its deadline,
  and evaluates a full ticket into a Result covering both metrics.

CLASSIFICATION RULES:
  completed:        met if at/before deadline, breached if after
  not completed:    breached once "now" passes the deadline; otherwise
                    at_risk when the elapsed fraction of the budget span
                    crosses the risk threshold, else pending
  disabled policy:  not_applicable, always

RISK FRACTION:
  elapsedFraction = (now - budgetStart) / (deadline - budgetStart), both in
  wall-clock hours. The denominator is the same wall-clock span that
  produced the deadline, so business-hours policies need no second
  conversion; business-hours elapsed is reported separately.
  An epsilon of 1e-6 makes a fraction exactly at the threshold classify
  deterministically as at_risk.

SEE ALSO:
  - deadline.go: Produces the deadlines classified here
  - types.go: Status enum, Result
*/
package sla

import (
	"time"
)

// DefaultRiskThreshold is the elapsed-budget fraction at which an
// uncompleted metric flips from pending to at_risk.
const DefaultRiskThreshold = 0.8

// fractionEpsilon tolerates float64 error in threshold comparison so that a
// fraction exactly at the threshold classifies as at_risk.
const fractionEpsilon = 1e-6

// Classify determines the status of one metric. completedAt is nil while
// the event has not been recorded. budgetStart is the instant the budget
// began running (the ticket's creation time).
func Classify(deadline time.Time, completedAt *time.Time, now time.Time, riskThreshold float64, budgetStart time.Time) (Status, error) {
	if completedAt != nil {
		if completedAt.Before(budgetStart) {
			return "", &OrderingError{What: "completion before budget start", Earlier: *completedAt, Later: budgetStart}
		}
		if completedAt.After(deadline) {
			return StatusBreached, nil
		}
		return StatusMet, nil
	}

	if now.Before(budgetStart) {
		return "", &OrderingError{What: "now before budget start", Earlier: now, Later: budgetStart}
	}
	if now.After(deadline) {
		return StatusBreached, nil
	}

	span := deadline.Sub(budgetStart).Hours()
	if span <= 0 {
		// Zero-length budget that has not yet breached: the entire budget
		// is consumed the moment it starts.
		return StatusAtRisk, nil
	}

	elapsedFraction := now.Sub(budgetStart).Hours() / span
	if elapsedFraction >= riskThreshold-fractionEpsilon {
		return StatusAtRisk, nil
	}
	return StatusPending, nil
}

// Evaluate computes the full Result for one ticket: both deadlines, both
// statuses, and the elapsed-hours reporting figures. firstResponseAt and
// resolvedAt are nil while unrecorded. A disabled policy short-circuits to
// not_applicable with zero deadlines.
func Evaluate(policy PriorityPolicy, cal *BusinessCalendar, createdAt time.Time, firstResponseAt, resolvedAt *time.Time, now time.Time) (*Result, error) {
	// Invalid targets are rejected even on disabled policies; disabling
	// suppresses tracking, not validation.
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if !policy.Enabled {
		return &Result{
			ResponseStatus:    StatusNotApplicable,
			ResolutionStatus:  StatusNotApplicable,
			UsedBusinessHours: policy.BusinessHoursOnly,
		}, nil
	}
	if firstResponseAt != nil && firstResponseAt.Before(createdAt) {
		return nil, &OrderingError{What: "first response before creation", Earlier: *firstResponseAt, Later: createdAt}
	}
	if resolvedAt != nil && resolvedAt.Before(createdAt) {
		return nil, &OrderingError{What: "resolution before creation", Earlier: *resolvedAt, Later: createdAt}
	}

	responseDeadline, err := ComputeDeadline(createdAt, policy.ResponseTargetHours, policy.BusinessHoursOnly, cal)
	if err != nil {
		return nil, err
	}
	resolutionDeadline, err := ComputeDeadline(createdAt, policy.ResolutionTargetHours, policy.BusinessHoursOnly, cal)
	if err != nil {
		return nil, err
	}

	responseStatus, err := Classify(responseDeadline, firstResponseAt, now, DefaultRiskThreshold, createdAt)
	if err != nil {
		return nil, err
	}
	resolutionStatus, err := Classify(resolutionDeadline, resolvedAt, now, DefaultRiskThreshold, createdAt)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ResponseDeadline:   responseDeadline,
		ResolutionDeadline: resolutionDeadline,
		ResponseStatus:     responseStatus,
		ResolutionStatus:   resolutionStatus,
		UsedBusinessHours:  policy.BusinessHoursOnly,
	}

	result.ResponseElapsedHours = elapsedHours(createdAt, firstResponseAt, now)
	result.ResolutionElapsedHours = elapsedHours(createdAt, resolvedAt, now)

	if policy.BusinessHoursOnly {
		result.ResponseBusinessElapsedHours = businessElapsedHours(cal, createdAt, firstResponseAt, now)
		result.ResolutionBusinessElapsedHours = businessElapsedHours(cal, createdAt, resolvedAt, now)
	}

	return result, nil
}

// elapsedHours measures wall-clock hours from start until completion, or
// until now while the event is outstanding.
func elapsedHours(start time.Time, completedAt *time.Time, now time.Time) *float64 {
	until := now
	if completedAt != nil {
		until = *completedAt
	}
	h := until.Sub(start).Hours()
	if h < 0 {
		h = 0
	}
	return &h
}

func businessElapsedHours(cal *BusinessCalendar, start time.Time, completedAt *time.Time, now time.Time) *float64 {
	until := now
	if completedAt != nil {
		until = *completedAt
	}
	h := cal.BusinessHoursBetween(start, until)
	return &h
}
