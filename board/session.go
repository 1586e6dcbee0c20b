/*
session.go - One board's full state and rebuild pipeline

PURPOSE:
  A Session owns everything a single scheduling board needs: the loaded
  roster and exception tables, the selected date/shift/quarter, the derived
  badge set, the placement store, the audit log, and the last-lane fairness
  memory. There is no package-level state; two sessions never touch.

REBUILD CONTRACT:
  Changing any input (a file, the date, the shift type) clears and
  recomputes ALL derived state synchronously. The data is hundreds of rows;
  a full rebuild is simpler and fast enough, and it makes re-derivation
  idempotent by construction. A monotonic generation counter guards the
  pipeline: if inputs change while a rebuild is in flight, the stale
  rebuild's results are discarded.

MANUAL-STATE MERGE:
  Operator-set state (present + flip time, lane placement, break tag) is
  carried across a rebuild for every eid that is still scheduled
  afterwards. Preserved placements re-apply through the normal capacity
  check and drop silently if their lane no longer has room. Everything else
  resets.

SEE ALSO:
  - resolve.go: derivation of the scheduled set
  - placement.go: the capacity-bounded store underneath
  - quarter.go: rotation, snapshot export, fairness memory
*/
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
)

// Session is one live board. All methods are safe for concurrent use; the
// HTTP layer funnels every mutation through the session mutex, which
// preserves the single-event-loop semantics the engine assumes.
type Session struct {
	mu  sync.Mutex
	log zerolog.Logger

	policy roster.Policy
	hist   HistoryStore

	// inputs (replaced wholesale when a source file changes)
	rows       []roster.EmployeeRecord
	exceptions ExceptionTables
	date       string
	shift      schedule.ShiftType
	quarter    string

	// derived
	generation uint64
	badges     []*Badge
	index      map[string]*Badge
	board      *Board
	audit      *AuditLog
	lastLane   map[string]string

	pendingQuarter string

	now func() time.Time
}

// NewSession builds a session over the given lane layout. The fairness
// memory is loaded from the HistoryStore when one is attached; a load
// failure starts with empty memory rather than failing the board.
func NewSession(layout []LaneConfig, policy roster.Policy, quarter string, hist HistoryStore, log zerolog.Logger) (*Session, error) {
	b, err := NewBoard(layout)
	if err != nil {
		return nil, err
	}
	s := &Session{
		log:      log,
		policy:   policy,
		hist:     hist,
		quarter:  quarter,
		shift:    schedule.ShiftDay,
		board:    b,
		audit:    NewAuditLog(hist, log),
		index:    make(map[string]*Badge),
		lastLane: make(map[string]string),
		now:      time.Now,
	}
	if hist != nil {
		if lanes, err := hist.LastLanes(context.Background()); err == nil && lanes != nil {
			s.lastLane = lanes
		} else if err != nil {
			log.Warn().Err(err).Msg("fairness memory not loaded, starting empty")
		}
	}
	return s, nil
}

// =============================================================================
// INPUT SETTERS - each one triggers a full rebuild
// =============================================================================

func (s *Session) SetRoster(rows []roster.EmployeeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.rebuild()
}

func (s *Session) SetSwapOuts(recs []roster.SwapRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions.SwapOuts = recs
	s.rebuild()
}

func (s *Session) SetSwapIns(recs []roster.SwapRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions.SwapIns = recs
	s.rebuild()
}

func (s *Session) SetVetVto(recs []roster.VetVtoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions.VetVto = recs
	s.rebuild()
}

func (s *Session) SetVacations(recs []roster.VacationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions.Vacations = recs
	s.rebuild()
}

func (s *Session) SetLaborShares(recs []roster.LaborShareRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions.LaborShares = recs
	s.rebuild()
}

// SetDate selects the board date and shift type.
func (s *Session) SetDate(date string, shift schedule.ShiftType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	s.shift = shift
	s.rebuild()
}

// Rebuild re-derives the board from current inputs. Setters call this
// implicitly; it is exposed for callers that mutate nothing but want a
// fresh derivation.
func (s *Session) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild()
}

// =============================================================================
// REBUILD PIPELINE
// =============================================================================

type manualState struct {
	present  bool
	flipTime string
	onBreak  bool
	lane     string
	slot     int
	placed   bool
}

func (s *Session) rebuild() {
	gen := s.generation + 1
	s.generation = gen

	// Snapshot operator-set state before clearing anything.
	manual := make(map[string]manualState, len(s.badges))
	for _, b := range s.badges {
		st := manualState{present: b.Present, flipTime: b.FlipTime, onBreak: b.Tags.Break}
		if lane, slot, ok := s.board.LaneOf(b.EID); ok {
			st.lane, st.slot, st.placed = lane, slot, true
		}
		manual[b.EID] = st
	}

	codes := schedule.CodeSet(s.date, s.shift)
	eligible := roster.Eligible(s.rows, codes, s.policy)
	scheduled := ResolveScheduled(eligible, s.exceptions, s.date)

	// A rebuild whose inputs were superseded while deriving must not
	// commit. Derivation is synchronous under the session mutex today, so
	// this only trips if the pipeline ever goes asynchronous.
	if gen != s.generation {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale rebuild")
		return
	}

	s.board.Reset()
	s.badges = make([]*Badge, 0, len(scheduled))
	s.index = make(map[string]*Badge, len(scheduled))
	for i := range scheduled {
		b := scheduled[i]
		if st, ok := manual[b.EID]; ok {
			b.Present = st.present
			b.FlipTime = st.flipTime
			b.Tags.Break = st.onBreak
		}
		bp := &b
		s.badges = append(s.badges, bp)
		s.index[b.EID] = bp
	}

	// Re-apply preserved placements through the normal capacity path; a
	// lane that shrank or filled drops the placement.
	for _, b := range s.badges {
		st := manual[b.EID]
		if !st.placed {
			continue
		}
		if _, err := s.board.Place(b.EID, st.lane, st.slot); err != nil {
			s.log.Debug().Str("eid", b.EID).Str("lane", st.lane).Msg("preserved placement dropped on rebuild")
		}
	}

	s.log.Info().
		Uint64("generation", gen).
		Str("date", s.date).
		Str("shift", string(s.shift)).
		Int("eligible", len(eligible)).
		Int("scheduled", len(scheduled)).
		Msg("board rebuilt")
}

// =============================================================================
// PLACEMENT OPERATIONS (audited)
// =============================================================================

func locationLabel(lane string, slot int) string {
	if lane == "" {
		return "unassigned"
	}
	if slot >= 0 {
		return fmt.Sprintf("%s#%02d", lane, slot+1)
	}
	return lane
}

// Place moves a badge to a lane (and slot, for stations lanes). The
// destination is capacity-checked; failure leaves the badge where it was.
func (s *Session) Place(eid, laneID string, slotHint int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[eid]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBadge, eid)
	}
	fromLane, fromSlot, _ := s.board.LaneOf(eid)
	slot, err := s.board.Place(eid, laneID, slotHint)
	if err != nil {
		return err
	}
	s.audit.Append(AuditMove, eid, locationLabel(fromLane, fromSlot), locationLabel(laneID, slot))
	return nil
}

// Unplace returns a badge to the unassigned pool.
func (s *Session) Unplace(eid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[eid]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBadge, eid)
	}
	fromLane, fromSlot, placed := s.board.LaneOf(eid)
	if !placed {
		return nil
	}
	s.board.Unplace(eid)
	s.audit.Append(AuditMove, eid, locationLabel(fromLane, fromSlot), "unassigned")
	return nil
}

// TogglePresence flips the attendance flag. Marking present stamps the
// flip time; unmarking clears it.
func (s *Session) TogglePresence(eid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.index[eid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBadge, eid)
	}
	if b.Present {
		b.Present = false
		b.FlipTime = ""
		s.audit.Append(AuditUnflip, eid, "present", "absent")
	} else {
		b.Present = true
		b.FlipTime = s.now().Format("15:04")
		s.audit.Append(AuditFlip, eid, "absent", "present")
	}
	return nil
}

// ToggleBreak flips the break tag.
func (s *Session) ToggleBreak(eid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.index[eid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBadge, eid)
	}
	b.Tags.Break = !b.Tags.Break
	from, to := "off", "on"
	if !b.Tags.Break {
		from, to = "on", "off"
	}
	s.audit.Append(AuditBreakToggle, eid, from, to)
	return nil
}

// =============================================================================
// AUTO-ASSIGN
// =============================================================================

// assignPool is the auto-assignable subset: planned, unplaced, and not
// flagged off the board by VTO or swap-out.
func (s *Session) assignPool() []Badge {
	var pool []Badge
	for _, b := range s.badges {
		if !b.Planned || b.Tags.VTO || b.Tags.SwapOut {
			continue
		}
		if _, _, placed := s.board.LaneOf(b.EID); placed {
			continue
		}
		pool = append(pool, *b)
	}
	return pool
}

// PreviewAssign proposes a placement for the unassigned pool without
// committing it. A zero seed draws one from the clock; pass a fixed seed
// to reproduce a preview.
func (s *Session) PreviewAssign(opts AssignOptions) []ProposedMove {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts.Seed == 0 {
		opts.Seed = s.now().UnixNano()
	}
	return ProposeAssignments(s.assignPool(), s.board, s.lastLane, opts)
}

// ApplyAssign commits previewed moves through the normal audited placement
// path. Moves that no longer fit (the board changed since the preview) are
// skipped; the count of applied moves is returned.
func (s *Session) ApplyAssign(moves []ProposedMove) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for _, m := range moves {
		if _, ok := s.index[m.EID]; !ok {
			continue
		}
		fromLane, fromSlot, _ := s.board.LaneOf(m.EID)
		slot, err := s.board.Place(m.EID, m.LaneID, m.Slot)
		if err != nil {
			s.log.Debug().Str("eid", m.EID).Str("lane", m.LaneID).Err(err).Msg("auto-assign move skipped")
			continue
		}
		s.audit.Append(AuditMove, m.EID, locationLabel(fromLane, fromSlot), locationLabel(m.LaneID, slot))
		applied++
	}
	return applied
}

// =============================================================================
// QUERIES
// =============================================================================

// Badges returns the scheduled population in board order (name, then eid).
func (s *Session) Badges() []Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Badge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, *b)
	}
	return out
}

// Badge looks up one scheduled employee.
func (s *Session) Badge(eid string) (Badge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.index[eid]
	if !ok {
		return Badge{}, false
	}
	return *b, true
}

// Search finds badges whose eid or name contains the query,
// case-insensitively. Used by the scroll-to-badge UI.
func (s *Session) Search(query string) []Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Badge
	for _, b := range s.badges {
		if strings.Contains(strings.ToLower(b.EID), q) || strings.Contains(strings.ToLower(b.Name), q) {
			out = append(out, *b)
		}
	}
	return out
}

// Layout returns the lane configs.
func (s *Session) Layout() []LaneConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Layout()
}

// OccupantsOf lists a lane's occupants.
func (s *Session) OccupantsOf(laneID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.OccupantsOf(laneID)
}

// LaneOf returns a badge's current location.
func (s *Session) LaneOf(eid string) (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.LaneOf(eid)
}

// ActiveCodes returns the shift codes working the selected date/shift.
func (s *Session) ActiveCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.ActiveCodes(s.date, s.shift)
}

// KPI rolls up the current headcounts.
func (s *Session) KPI() KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	badges := make([]Badge, 0, len(s.badges))
	for _, b := range s.badges {
		badges = append(badges, *b)
	}
	return computeKPI(badges, s.board, schedule.ActiveCodes(s.date, s.shift))
}

// AuditRecent returns the retained log newest-first for display.
func (s *Session) AuditRecent() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit.Recent()
}

// AuditEntries returns the retained log oldest-first for export.
func (s *Session) AuditEntries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit.Entries()
}

// Date returns the selected date string.
func (s *Session) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Shift returns the selected shift type.
func (s *Session) Shift() schedule.ShiftType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shift
}

// Quarter returns the active rotation quarter.
func (s *Session) Quarter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quarter
}

// LastLanes returns a copy of the fairness memory.
func (s *Session) LastLanes() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.lastLane))
	for k, v := range s.lastLane {
		out[k] = v
	}
	return out
}
