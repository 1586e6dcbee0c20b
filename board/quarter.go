/*
quarter.go - Quarter rotation: snapshot, reset, fairness memory

PURPOSE:
  A quarter is a rotation period within a shift: placements stay stable for
  the quarter, then the board rotates. Rotation is a two-step gesture so a
  mis-click on the quarter selector cannot wipe the board:

    RequestRotation(to)  ->  ConfirmRotation()   export + reset
                         ->  DeclineRotation()   nothing happens

  Export and reset are coupled: confirming snapshots the CURRENT placement
  table keyed by the OUTGOING quarter, persists it, records every placed
  badge's lane into the last-lane fairness memory, and only then clears the
  placement store. Declining performs neither and tells the caller which
  quarter the selector should revert to.

FAIRNESS MEMORY:
  lastLane survives rotation (and process restarts, via the HistoryStore).
  The auto-assign heuristic uses it to avoid giving someone the same lane
  two quarters running.
*/
package board

import (
	"context"
	"fmt"
)

// RequestRotation stages a rotation to the given quarter. A second request
// while one is pending is rejected; confirm or decline first.
func (s *Session) RequestRotation(to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingQuarter != "" {
		return ErrRotationPending
	}
	if to == "" {
		return fmt.Errorf("rotation target quarter is empty")
	}
	s.pendingQuarter = to
	return nil
}

// PendingRotation reports the staged target quarter, if any.
func (s *Session) PendingRotation() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingQuarter, s.pendingQuarter != ""
}

// ConfirmRotation exports the pre-reset placement table, updates the
// fairness memory, resets the placement store, and activates the new
// quarter. The returned snapshot reflects placements from BEFORE the
// reset.
func (s *Session) ConfirmRotation() (QuarterSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingQuarter == "" {
		return QuarterSnapshot{}, ErrNoRotationPending
	}

	snap := s.snapshotLocked()

	if s.hist != nil {
		if err := s.hist.SaveSnapshot(context.Background(), snap); err != nil {
			s.log.Warn().Err(err).Str("quarter", snap.Quarter).Msg("quarter snapshot not persisted")
		}
	}

	for _, b := range s.badges {
		if lane, _, ok := s.board.LaneOf(b.EID); ok {
			s.lastLane[b.EID] = lane
		}
	}
	if s.hist != nil {
		if err := s.hist.SaveLastLanes(context.Background(), s.lastLane); err != nil {
			s.log.Warn().Err(err).Msg("fairness memory not persisted")
		}
	}

	s.board.Reset()
	outgoing := s.quarter
	s.quarter = s.pendingQuarter
	s.pendingQuarter = ""

	s.log.Info().
		Str("from", outgoing).
		Str("to", s.quarter).
		Int("exported_rows", len(snap.Rows)).
		Msg("quarter rotated")
	return snap, nil
}

// DeclineRotation cancels the staged rotation. No export, no reset; the
// returned quarter is the value the selector should revert to.
func (s *Session) DeclineRotation() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingQuarter == "" {
		return s.quarter, ErrNoRotationPending
	}
	s.pendingQuarter = ""
	return s.quarter, nil
}

// Snapshot renders the current placement table without rotating. Used for
// ad-hoc exports.
func (s *Session) Snapshot() QuarterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked walks lanes in layout order, stations in slot order and
// pools in ascending eid, one row per placement.
func (s *Session) snapshotLocked() QuarterSnapshot {
	snap := QuarterSnapshot{
		Quarter: s.quarter,
		Date:    s.date,
		Shift:   string(s.shift),
		TakenAt: s.now(),
	}
	for _, cfg := range s.board.Layout() {
		for _, eid := range s.board.OccupantsOf(cfg.ID) {
			b, ok := s.index[eid]
			if !ok {
				continue
			}
			row := SnapshotRow{
				Date:      s.date,
				ShiftType: string(s.shift),
				Quarter:   s.quarter,
				EID:       b.EID,
				Name:      b.Name,
				PathID:    cfg.ID,
				PathName:  cfg.Name,
				Present:   b.Present,
				ShiftCode: b.ShiftCode,
				Tags:      b.Tags.Summary(),
				FlipTime:  b.FlipTime,
			}
			if cfg.Stations {
				if _, slot, ok := s.board.LaneOf(eid); ok {
					row.Station = fmt.Sprintf("%02d", slot+1)
				}
			}
			snap.Rows = append(snap.Rows, row)
		}
	}
	return snap
}
