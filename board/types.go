/*
Package board is the placement-state engine behind the scheduling board.

PURPOSE:
  Everything that happens after a roster is ingested lives here: resolving
  the day's scheduled population from eligibility plus exceptions, holding
  the capacity-bounded assignment of badges to lanes and stations, the
  auto-assignment heuristic, the audit trail, KPI rollups, and quarter
  rotation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Badge: one scheduled employee's board state for the day
  - Tags: exception markers (VET, VTO, swap-in/out, labor-share, break)
  - LaneConfig: a named placement target; Stations lanes are pools of
    unit-capacity slots
  - ProposedMove: one uncommitted auto-assign placement
  - HistoryStore: persistence boundary for the audit trail, last-lane
    fairness memory, and archived quarter snapshots

DESIGN PRINCIPLES:
  1. Full rebuild: badge state is derived from scratch on every input
     change, never patched incrementally (the data is hundreds of rows).
  2. Explicit session: no package-level mutable state; everything hangs off
     a Session so multiple boards and tests cannot contaminate each other.
  3. Determinism: every tie-break (slot choice, labor-share selection) uses
     an explicit comparator, never map iteration order.

SEE ALSO:
  - resolve.go: exception precedence rules
  - placement.go: capacity-bounded lane assignment
  - session.go: rebuild pipeline and lifecycle
*/
package board

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// BADGE - per-employee board state for one derived day
// =============================================================================

// Tags marks which exception paths touched a badge during derivation, plus
// the operator-toggled break flag.
type Tags struct {
	VET     bool `json:"vet"`
	VTO     bool `json:"vto"`
	SwapIn  bool `json:"swapin"`
	SwapOut bool `json:"swapout"`
	Share   bool `json:"share"`
	Break   bool `json:"break"`
}

// Summary renders the exported tag list, "|"-joined, in the fixed
// VET|VTO|SwapIN|SwapOUT order. Share and Break are board-local and do not
// export.
func (t Tags) Summary() string {
	var parts []string
	if t.VET {
		parts = append(parts, "VET")
	}
	if t.VTO {
		parts = append(parts, "VTO")
	}
	if t.SwapIn {
		parts = append(parts, "SwapIN")
	}
	if t.SwapOut {
		parts = append(parts, "SwapOUT")
	}
	return strings.Join(parts, "|")
}

// Badge is one member of the scheduled population. Identity is the EID; the
// whole set is recomputed on every rebuild, with operator-set Present, lane
// and Break carried across for surviving eids (see Session.Rebuild).
type Badge struct {
	EID       string `json:"eid"`
	Name      string `json:"name"`
	ShiftCode string `json:"shift_code"`
	ManagerID string `json:"manager_id,omitempty"`

	// Planned: expected on the board today per schedule + exceptions.
	// Present: operator-confirmed attendance, independent of Planned.
	Planned  bool   `json:"planned"`
	Present  bool   `json:"present"`
	FlipTime string `json:"flip_time,omitempty"`

	Tags Tags `json:"tags"`
}

// =============================================================================
// LANES
// =============================================================================

// LaneConfig describes one placement target. A Stations lane is an ordered
// collection of Capacity unit slots; a regular lane is a single bounded set.
type LaneConfig struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Stations bool   `json:"stations"`
	Critical bool   `json:"critical"`
}

// ProposedMove is one uncommitted placement from the auto-assign preview.
// Slot is -1 for regular lanes.
type ProposedMove struct {
	EID    string `json:"eid"`
	LaneID string `json:"lane_id"`
	Slot   int    `json:"slot"`
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

// AuditKind classifies a log entry.
type AuditKind string

const (
	AuditMove        AuditKind = "move"
	AuditFlip        AuditKind = "flip"
	AuditUnflip      AuditKind = "unflip"
	AuditBreakToggle AuditKind = "break-toggle"
)

// AuditEntry records one operator-visible mutation.
type AuditEntry struct {
	ID   string    `json:"id"`
	TS   time.Time `json:"ts"`
	Kind AuditKind `json:"kind"`
	EID  string    `json:"eid"`
	From string    `json:"from"`
	To   string    `json:"to"`
}

// =============================================================================
// QUARTER SNAPSHOT
// =============================================================================

// SnapshotRow is one row-per-placement line of a quarter export.
type SnapshotRow struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Quarter   string `json:"quarter"`
	EID       string `json:"eid"`
	Name      string `json:"name"`
	PathID    string `json:"path_id"`
	PathName  string `json:"path_name"`
	Station   string `json:"station"`
	Present   bool   `json:"present"`
	ShiftCode string `json:"shift_code"`
	Tags      string `json:"tags"`
	FlipTime  string `json:"flip_time"`
}

// QuarterSnapshot is the exported placement table for one outgoing quarter.
type QuarterSnapshot struct {
	Quarter string        `json:"quarter"`
	Date    string        `json:"date"`
	Shift   string        `json:"shift"`
	TakenAt time.Time     `json:"taken_at"`
	Rows    []SnapshotRow `json:"rows"`
}

// =============================================================================
// HISTORY STORE - persistence boundary
// =============================================================================

// HistoryStore persists the state that outlives a rebuild: the audit trail,
// the last-lane fairness memory (which survives quarter rotation by
// contract), and archived quarter snapshots.
//
// Implementations:
//   - board/store: in-memory, for tests and sessions without a db path
//   - store/sqlite: durable, survives process restarts
type HistoryStore interface {
	AppendAudit(ctx context.Context, e AuditEntry) error

	LastLanes(ctx context.Context) (map[string]string, error)
	SaveLastLanes(ctx context.Context, lanes map[string]string) error

	SaveSnapshot(ctx context.Context, snap QuarterSnapshot) error
	ListSnapshots(ctx context.Context) ([]string, error)
	GetSnapshot(ctx context.Context, quarter string) (QuarterSnapshot, bool, error)

	Close() error
}
