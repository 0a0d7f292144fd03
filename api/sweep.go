/*
sweep.go - Periodic SLA re-evaluation

PURPOSE:
  Open tickets drift toward at_risk and breached purely by the passage of
  time, with no triggering event. The sweep periodically re-evaluates every
  open ticket, persists the latest snapshot, and logs status transitions so
  operators see escalations without polling the API.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each ticket's evaluation is independent (embarrassingly parallel in
    principle; sequential here because a sweep is not latency-sensitive)
  - Compares against the previous snapshot to log only transitions
  - Evaluation failures on one ticket never abort the sweep

USAGE:
  sweep := NewSLASweep(store, handler)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - handlers.go: GetTicketSLA (on-demand evaluation)
  - helpdesk/evaluate.go: The per-ticket computation
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/store/sqlite"
)

// SLASweep re-evaluates open tickets on an interval.
type SLASweep struct {
	Store         *sqlite.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSLASweep creates a new sweep.
func NewSLASweep(store *sqlite.Store, handler *Handler) *SLASweep {
	return &SLASweep{
		Store:         store,
		Handler:       handler,
		CheckInterval: 5 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweep.
func (s *SLASweep) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Sweep] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Sweep] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the sweep.
func (s *SLASweep) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Sweep] Stopped")
	}
}

func (s *SLASweep) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *SLASweep) sweep() {
	ctx := context.Background()
	now := s.Handler.Clock()

	tickets, err := s.Store.ListOpenTickets(ctx)
	if err != nil {
		log.Printf("[Sweep] Error listing open tickets: %v", err)
		return
	}

	set, cal := s.Handler.config()

	evaluated := 0
	transitions := 0
	for _, ticket := range tickets {
		previous, err := s.Store.GetSnapshot(ctx, ticket.ID)
		if err != nil {
			log.Printf("[Sweep] Error loading snapshot for %s: %v", ticket.ID, err)
			continue
		}

		result, err := helpdesk.EvaluateTicket(set, cal, ticket, now)
		if err != nil {
			log.Printf("[Sweep] Error evaluating %s: %v", ticket.ID, err)
			continue
		}

		snap := sqlite.Snapshot{
			TicketID:           ticket.ID,
			ResponseStatus:     result.ResponseStatus,
			ResolutionStatus:   result.ResolutionStatus,
			ResponseDeadline:   result.ResponseDeadline,
			ResolutionDeadline: result.ResolutionDeadline,
			UsedBusinessHours:  result.UsedBusinessHours,
			EvaluatedAt:        now,
		}
		if err := s.Store.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("[Sweep] Error saving snapshot for %s: %v", ticket.ID, err)
			continue
		}
		evaluated++

		if previous != nil {
			if previous.ResponseStatus != result.ResponseStatus {
				transitions++
				log.Printf("[Sweep] Ticket %s response: %s -> %s", ticket.ID, previous.ResponseStatus, result.ResponseStatus)
			}
			if previous.ResolutionStatus != result.ResolutionStatus {
				transitions++
				log.Printf("[Sweep] Ticket %s resolution: %s -> %s", ticket.ID, previous.ResolutionStatus, result.ResolutionStatus)
			}
		}
	}

	if evaluated > 0 {
		log.Printf("[Sweep] Completed: %d evaluated, %d transitions", evaluated, transitions)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (s *SLASweep) RunNow() {
	s.sweep()
}
