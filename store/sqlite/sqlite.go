/*
Package sqlite provides the SQLite-backed HistoryStore.

PURPOSE:
  Board state is rebuilt from CSVs every session; what needs to survive a
  restart is the small durable tail: the audit trail, the last-lane
  fairness memory, and archived quarter snapshots. This store keeps those
  three in a local SQLite file.

KEY TABLES:
  audit_log:          append-only mutation trail (no UPDATE, no DELETE)
  fairness:           eid -> last assigned lane, replaced wholesale on save
  quarter_snapshots:  one archived export per outgoing quarter

WAL MODE:
  Opened with WAL so the HTTP handlers' reads never block the single
  writer.

USAGE:
  hist, err := sqlite.New("./board.db")
  if err != nil { ... }
  defer hist.Close()
  session, err := board.NewSession(layout, policy, "Q1", hist, log)

SEE ALSO:
  - board/types.go: the HistoryStore interface
  - board/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pxt/board-engine/board"
)

// Store implements board.HistoryStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		kind TEXT NOT NULL,
		eid TEXT NOT NULL,
		from_loc TEXT,
		to_loc TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_ts ON audit_log(ts);
	CREATE INDEX IF NOT EXISTS idx_audit_log_eid ON audit_log(eid);

	-- Last-lane fairness memory (survives quarter rotation)
	CREATE TABLE IF NOT EXISTS fairness (
		eid TEXT PRIMARY KEY,
		lane_id TEXT NOT NULL
	);

	-- Archived quarter exports, one per outgoing quarter
	CREATE TABLE IF NOT EXISTS quarter_snapshots (
		quarter TEXT PRIMARY KEY,
		board_date TEXT NOT NULL,
		shift TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		rows_json TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

// AppendAudit persists one entry. Append-only: there is no update or
// delete path for audit rows.
func (s *Store) AppendAudit(ctx context.Context, e board.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, ts, kind, eid, from_loc, to_loc) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TS.Format(time.RFC3339Nano), string(e.Kind), e.EID, e.From, e.To)
	return err
}

// Audit returns the full persisted trail, oldest first.
func (s *Store) Audit(ctx context.Context) ([]board.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, eid, from_loc, to_loc FROM audit_log ORDER BY ts, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []board.AuditEntry
	for rows.Next() {
		var e board.AuditEntry
		var ts, kind string
		if err := rows.Scan(&e.ID, &ts, &kind, &e.EID, &e.From, &e.To); err != nil {
			return nil, err
		}
		e.Kind = board.AuditKind(kind)
		e.TS, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// FAIRNESS MEMORY
// =============================================================================

func (s *Store) LastLanes(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT eid, lane_id FROM fairness`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var eid, lane string
		if err := rows.Scan(&eid, &lane); err != nil {
			return nil, err
		}
		out[eid] = lane
	}
	return out, rows.Err()
}

// SaveLastLanes replaces the fairness table wholesale, atomically.
func (s *Store) SaveLastLanes(ctx context.Context, lanes map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fairness`); err != nil {
		return err
	}
	for eid, lane := range lanes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fairness (eid, lane_id) VALUES (?, ?)`, eid, lane); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// QUARTER SNAPSHOTS
// =============================================================================

// SaveSnapshot archives a quarter export. Re-rotating through the same
// quarter label overwrites the previous archive for it.
func (s *Store) SaveSnapshot(ctx context.Context, snap board.QuarterSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rowsJSON, err := json.Marshal(snap.Rows)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quarter_snapshots (quarter, board_date, shift, taken_at, rows_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(quarter) DO UPDATE SET
		   board_date = excluded.board_date,
		   shift = excluded.shift,
		   taken_at = excluded.taken_at,
		   rows_json = excluded.rows_json`,
		snap.Quarter, snap.Date, snap.Shift, snap.TakenAt.Format(time.RFC3339Nano), string(rowsJSON))
	return err
}

func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT quarter FROM quarter_snapshots ORDER BY quarter`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) GetSnapshot(ctx context.Context, quarter string) (board.QuarterSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snap board.QuarterSnapshot
	var takenAt, rowsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT quarter, board_date, shift, taken_at, rows_json FROM quarter_snapshots WHERE quarter = ?`,
		quarter).Scan(&snap.Quarter, &snap.Date, &snap.Shift, &takenAt, &rowsJSON)
	if err == sql.ErrNoRows {
		return board.QuarterSnapshot{}, false, nil
	}
	if err != nil {
		return board.QuarterSnapshot{}, false, err
	}
	snap.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
	if err := json.Unmarshal([]byte(rowsJSON), &snap.Rows); err != nil {
		return board.QuarterSnapshot{}, false, err
	}
	return snap, true, nil
}
