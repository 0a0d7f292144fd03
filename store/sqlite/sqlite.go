/*
Package sqlite provides SQLite-backed persistence for the ticket system.

PURPOSE:
  Stores the records the SLA engine itself refuses to own: tickets and
  their lifecycle timestamps, the active configuration document, and the
  latest evaluated SLA snapshot per ticket (for dashboards and for the
  sweep to detect status transitions). The engine in the sla package never
  touches this store; everything here is the surrounding request-management
  system.

KEY TABLES:
  tickets:        Ticket records with creation/response/resolution times
  config:         The active policy-set + calendar JSON document (one row)
  sla_snapshots:  Latest evaluation result per ticket

TIME REPRESENTATION:
  All timestamps persist as integer epoch milliseconds. The engine works
  in time.Time; conversion happens only at this boundary.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so the sweep's reads
  don't block API writes.

USAGE:
  store, err := sqlite.New("./data/helpdesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - helpdesk/types.go: The Ticket record persisted here
  - api/sweep.go: Reads open tickets, writes snapshots
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/sla"
)

// Store persists tickets, configuration, and SLA snapshots.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tickets (lifecycle owned by the API layer)
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		requester TEXT,
		severity TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL,
		first_response_at_ms INTEGER,
		resolved_at_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_severity
		ON tickets(severity);

	-- Open-ticket scan is the sweep's hot path
	CREATE INDEX IF NOT EXISTS idx_tickets_open
		ON tickets(resolved_at_ms) WHERE resolved_at_ms IS NULL;

	CREATE INDEX IF NOT EXISTS idx_tickets_created
		ON tickets(created_at_ms);

	-- Active configuration (policy set + calendar JSON, single row)
	CREATE TABLE IF NOT EXISTS config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);

	-- Latest SLA evaluation per ticket
	CREATE TABLE IF NOT EXISTS sla_snapshots (
		ticket_id TEXT PRIMARY KEY,
		response_status TEXT NOT NULL,
		resolution_status TEXT NOT NULL,
		response_deadline_ms INTEGER,
		resolution_deadline_ms INTEGER,
		used_business_hours BOOLEAN NOT NULL,
		evaluated_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_statuses
		ON sla_snapshots(response_status, resolution_status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TICKETS
// =============================================================================

// SaveTicket inserts a new ticket record.
func (s *Store) SaveTicket(ctx context.Context, t *helpdesk.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, subject, requester, severity, created_at_ms, first_response_at_ms, resolved_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Subject, t.Requester, string(t.Severity),
		t.CreatedAt.UnixMilli(), optionalMillis(t.FirstResponseAt), optionalMillis(t.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save ticket %s: %w", t.ID, err)
	}
	return nil
}

// GetTicket returns a ticket by ID, or nil if not found.
func (s *Store) GetTicket(ctx context.Context, id string) (*helpdesk.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject, requester, severity, created_at_ms, first_response_at_ms, resolved_at_ms
		FROM tickets WHERE id = ?`, id)

	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// ListTickets returns all tickets ordered by creation time.
func (s *Store) ListTickets(ctx context.Context) ([]*helpdesk.Ticket, error) {
	return s.queryTickets(ctx, `
		SELECT id, subject, requester, severity, created_at_ms, first_response_at_ms, resolved_at_ms
		FROM tickets ORDER BY created_at_ms`)
}

// ListOpenTickets returns unresolved tickets, the sweep's working set.
func (s *Store) ListOpenTickets(ctx context.Context) ([]*helpdesk.Ticket, error) {
	return s.queryTickets(ctx, `
		SELECT id, subject, requester, severity, created_at_ms, first_response_at_ms, resolved_at_ms
		FROM tickets WHERE resolved_at_ms IS NULL ORDER BY created_at_ms`)
}

// SetFirstResponse records the first-response timestamp for a ticket.
func (s *Store) SetFirstResponse(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET first_response_at_ms = ? WHERE id = ? AND first_response_at_ms IS NULL`,
		at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to set first response for %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// SetResolution records the resolution timestamp for a ticket.
func (s *Store) SetResolution(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET resolved_at_ms = ? WHERE id = ? AND resolved_at_ms IS NULL`,
		at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to set resolution for %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// ErrNotUpdatable is returned when a lifecycle update matched no row: the
// ticket does not exist or the event was already recorded.
var ErrNotUpdatable = fmt.Errorf("ticket missing or event already recorded")

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ticket %s: %w", id, ErrNotUpdatable)
	}
	return nil
}

func (s *Store) queryTickets(ctx context.Context, query string, args ...any) ([]*helpdesk.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*helpdesk.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*helpdesk.Ticket, error) {
	var t helpdesk.Ticket
	var severity string
	var createdMs int64
	var responseMs, resolvedMs sql.NullInt64
	if err := row.Scan(&t.ID, &t.Subject, &t.Requester, &severity, &createdMs, &responseMs, &resolvedMs); err != nil {
		return nil, err
	}
	t.Severity = helpdesk.Severity(severity)
	t.CreatedAt = time.UnixMilli(createdMs).UTC()
	t.FirstResponseAt = optionalTime(responseMs)
	t.ResolvedAt = optionalTime(resolvedMs)
	return &t, nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SaveConfig replaces the active configuration document.
func (s *Store) SaveConfig(ctx context.Context, configJSON string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (id, config_json, updated_at_ms) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json, updated_at_ms = excluded.updated_at_ms`,
		configJSON, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// GetConfig returns the active configuration JSON, or "" if none stored.
func (s *Store) GetConfig(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM config WHERE id = 1`).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return configJSON, nil
}

// =============================================================================
// SLA SNAPSHOTS
// =============================================================================

// Snapshot is the persisted form of the latest evaluation for one ticket.
type Snapshot struct {
	TicketID           string
	ResponseStatus     sla.Status
	ResolutionStatus   sla.Status
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	UsedBusinessHours  bool
	EvaluatedAt        time.Time
}

// SaveSnapshot upserts the latest evaluation for a ticket.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sla_snapshots (ticket_id, response_status, resolution_status,
			response_deadline_ms, resolution_deadline_ms, used_business_hours, evaluated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id) DO UPDATE SET
			response_status = excluded.response_status,
			resolution_status = excluded.resolution_status,
			response_deadline_ms = excluded.response_deadline_ms,
			resolution_deadline_ms = excluded.resolution_deadline_ms,
			used_business_hours = excluded.used_business_hours,
			evaluated_at_ms = excluded.evaluated_at_ms`,
		snap.TicketID, string(snap.ResponseStatus), string(snap.ResolutionStatus),
		deadlineMillis(snap.ResponseDeadline), deadlineMillis(snap.ResolutionDeadline),
		snap.UsedBusinessHours, snap.EvaluatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snap.TicketID, err)
	}
	return nil
}

// GetSnapshot returns the latest snapshot for a ticket, or nil if never
// evaluated.
func (s *Store) GetSnapshot(ctx context.Context, ticketID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap         Snapshot
		respStatus   string
		resoStatus   string
		respDeadline sql.NullInt64
		resoDeadline sql.NullInt64
		evaluatedMs  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT ticket_id, response_status, resolution_status,
			response_deadline_ms, resolution_deadline_ms, used_business_hours, evaluated_at_ms
		FROM sla_snapshots WHERE ticket_id = ?`, ticketID).
		Scan(&snap.TicketID, &respStatus, &resoStatus, &respDeadline, &resoDeadline,
			&snap.UsedBusinessHours, &evaluatedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", ticketID, err)
	}

	snap.ResponseStatus = sla.Status(respStatus)
	snap.ResolutionStatus = sla.Status(resoStatus)
	if respDeadline.Valid {
		snap.ResponseDeadline = time.UnixMilli(respDeadline.Int64).UTC()
	}
	if resoDeadline.Valid {
		snap.ResolutionDeadline = time.UnixMilli(resoDeadline.Int64).UTC()
	}
	snap.EvaluatedAt = time.UnixMilli(evaluatedMs).UTC()
	return &snap, nil
}

// =============================================================================
// TIME CONVERSION HELPERS
// =============================================================================

func optionalMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func deadlineMillis(t time.Time) any {
	if t.IsZero() {
		// Disabled policies have no deadlines.
		return nil
	}
	return t.UnixMilli()
}

func optionalTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
