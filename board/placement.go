/*
placement.go - Capacity-bounded assignment of badges to lanes and slots

PURPOSE:
  The Board holds the current placement map: which eid sits in which lane,
  and for stations lanes, in which unit slot. It enforces the two board
  invariants:
    1. an eid occupies at most one lane/slot at a time
    2. a lane never exceeds its capacity (unit slots hold at most one)

SLOT SELECTION:
  Placing into a stations lane resolves to a SPECIFIC empty slot,
  deterministically: the hinted slot when empty, else the nearest empty
  slot by index distance with the lower index winning ties, else the
  lowest-indexed empty slot when no hint is given.

ATOMICITY:
  Re-parenting checks the destination first and only then removes the eid
  from its previous location. A rejected placement leaves everything as it
  was.

SEE ALSO:
  - session.go: wraps mutations with audit logging
  - autoassign.go: proposes placements over a Board without mutating it
*/
package board

import (
	"fmt"
	"sort"
)

type location struct {
	lane string
	slot int // -1 for regular lanes
}

type laneState struct {
	cfg       LaneConfig
	occupants map[string]bool // regular lanes
	slots     []string        // stations lanes: eid per slot, "" = empty
}

// Board is the placement store for one session.
type Board struct {
	order []string
	lanes map[string]*laneState
	byEID map[string]location
}

// NewBoard builds an empty placement store from the lane layout.
func NewBoard(layout []LaneConfig) (*Board, error) {
	b := &Board{
		lanes: make(map[string]*laneState, len(layout)),
		byEID: make(map[string]location),
	}
	for _, cfg := range layout {
		if cfg.ID == "" {
			return nil, fmt.Errorf("lane with empty id")
		}
		if cfg.Capacity <= 0 {
			return nil, fmt.Errorf("lane %s: capacity must be positive, got %d", cfg.ID, cfg.Capacity)
		}
		if _, dup := b.lanes[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate lane id %s", cfg.ID)
		}
		ls := &laneState{cfg: cfg}
		if cfg.Stations {
			ls.slots = make([]string, cfg.Capacity)
		} else {
			ls.occupants = make(map[string]bool, cfg.Capacity)
		}
		b.lanes[cfg.ID] = ls
		b.order = append(b.order, cfg.ID)
	}
	return b, nil
}

// Layout returns the lane configs in declaration order.
func (b *Board) Layout() []LaneConfig {
	out := make([]LaneConfig, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.lanes[id].cfg)
	}
	return out
}

// =============================================================================
// PLACEMENT OPERATIONS
// =============================================================================

// Place assigns an eid to a lane. slotHint is the requested unit slot for
// stations lanes (-1 for "no preference"); the resolved slot is returned.
// A full destination rejects the placement without touching the eid's
// previous location.
func (b *Board) Place(eid, laneID string, slotHint int) (int, error) {
	ls, ok := b.lanes[laneID]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownLane, laneID)
	}

	cur, placed := b.byEID[eid]

	if ls.cfg.Stations {
		slot := b.resolveSlot(ls, eid, slotHint)
		if slot < 0 {
			return -1, &LaneFullError{LaneID: laneID, Capacity: ls.cfg.Capacity}
		}
		if placed {
			b.removeLocked(eid, cur)
		}
		ls.slots[slot] = eid
		b.byEID[eid] = location{lane: laneID, slot: slot}
		return slot, nil
	}

	if ls.occupants[eid] {
		// Already in this lane; nothing to do.
		return -1, nil
	}
	if len(ls.occupants) >= ls.cfg.Capacity {
		return -1, &LaneFullError{LaneID: laneID, Capacity: ls.cfg.Capacity}
	}
	if placed {
		b.removeLocked(eid, cur)
	}
	ls.occupants[eid] = true
	b.byEID[eid] = location{lane: laneID, slot: -1}
	return -1, nil
}

// resolveSlot picks the destination unit slot: the hint when empty, else
// the nearest empty slot (lower index wins ties), else the lowest empty.
// Returns -1 when the lane is full. An eid re-placed into its own lane may
// reuse its current slot via the hint.
func (b *Board) resolveSlot(ls *laneState, eid string, hint int) int {
	if hint >= 0 && hint < len(ls.slots) && (ls.slots[hint] == "" || ls.slots[hint] == eid) {
		return hint
	}
	best := -1
	for i, occ := range ls.slots {
		if occ != "" && occ != eid {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		if hint >= 0 && abs(i-hint) < abs(best-hint) {
			best = i
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Unplace removes an eid from the board. Removing an unplaced eid is a
// no-op.
func (b *Board) Unplace(eid string) bool {
	cur, ok := b.byEID[eid]
	if !ok {
		return false
	}
	b.removeLocked(eid, cur)
	return true
}

func (b *Board) removeLocked(eid string, cur location) {
	ls := b.lanes[cur.lane]
	if ls.cfg.Stations {
		if cur.slot >= 0 && cur.slot < len(ls.slots) && ls.slots[cur.slot] == eid {
			ls.slots[cur.slot] = ""
		}
	} else {
		delete(ls.occupants, eid)
	}
	delete(b.byEID, eid)
}

// Reset clears every placement, leaving the layout intact.
func (b *Board) Reset() {
	for _, ls := range b.lanes {
		if ls.cfg.Stations {
			for i := range ls.slots {
				ls.slots[i] = ""
			}
		} else {
			ls.occupants = make(map[string]bool, ls.cfg.Capacity)
		}
	}
	b.byEID = make(map[string]location)
}

// =============================================================================
// QUERIES
// =============================================================================

// LaneOf returns the eid's lane and slot (-1 for regular lanes).
func (b *Board) LaneOf(eid string) (laneID string, slot int, ok bool) {
	cur, ok := b.byEID[eid]
	if !ok {
		return "", -1, false
	}
	return cur.lane, cur.slot, true
}

// OccupantsOf lists a lane's occupants: slot order for stations lanes,
// ascending eid for regular lanes.
func (b *Board) OccupantsOf(laneID string) []string {
	ls, ok := b.lanes[laneID]
	if !ok {
		return nil
	}
	var out []string
	if ls.cfg.Stations {
		for _, eid := range ls.slots {
			if eid != "" {
				out = append(out, eid)
			}
		}
		return out
	}
	for eid := range ls.occupants {
		out = append(out, eid)
	}
	sort.Strings(out)
	return out
}

// Remaining returns a lane's free capacity.
func (b *Board) Remaining(laneID string) int {
	ls, ok := b.lanes[laneID]
	if !ok {
		return 0
	}
	if ls.cfg.Stations {
		n := 0
		for _, eid := range ls.slots {
			if eid == "" {
				n++
			}
		}
		return n
	}
	return ls.cfg.Capacity - len(ls.occupants)
}

// EmptySlots lists a stations lane's free slot indexes, ascending.
func (b *Board) EmptySlots(laneID string) []int {
	ls, ok := b.lanes[laneID]
	if !ok || !ls.cfg.Stations {
		return nil
	}
	var out []int
	for i, eid := range ls.slots {
		if eid == "" {
			out = append(out, i)
		}
	}
	return out
}

// Placed returns the number of placed eids.
func (b *Board) Placed() int {
	return len(b.byEID)
}

// PlacedEIDs returns every placed eid, ascending.
func (b *Board) PlacedEIDs() []string {
	out := make([]string, 0, len(b.byEID))
	for eid := range b.byEID {
		out = append(out, eid)
	}
	sort.Strings(out)
	return out
}
