/*
errors.go - Centralized error types for the board engine

PURPOSE:
  All sentinel errors in one place. Nothing in this system is fatal: ingest
  failures degrade to treating input as absent, and these errors only
  surface on operator actions (a full lane, an unknown badge) where the
  caller needs to distinguish outcomes.

USAGE:
  if errors.Is(err, board.ErrLaneFull) {
      // transient "full" cue in the UI, no state changed
  }
*/
package board

import (
	"errors"
	"fmt"
)

var (
	// ErrLaneFull is returned when a placement targets a lane or slot that
	// is already at capacity. The placement is a no-op.
	ErrLaneFull = errors.New("lane at capacity")

	// ErrUnknownLane is returned for a lane id not in the board layout.
	ErrUnknownLane = errors.New("unknown lane")

	// ErrUnknownBadge is returned when an eid is not in the current
	// scheduled population.
	ErrUnknownBadge = errors.New("unknown badge")

	// ErrRotationPending is returned when a rotation is requested while an
	// earlier request still awaits confirm/decline.
	ErrRotationPending = errors.New("quarter rotation already pending")

	// ErrNoRotationPending is returned by confirm/decline without a
	// preceding rotation request.
	ErrNoRotationPending = errors.New("no quarter rotation pending")

	// ErrStaleGeneration marks a rebuild whose inputs were superseded while
	// it ran. Its results are discarded.
	ErrStaleGeneration = errors.New("rebuild superseded by newer inputs")
)

// LaneFullError carries the lane that rejected a placement.
type LaneFullError struct {
	LaneID   string
	Capacity int
}

func (e *LaneFullError) Error() string {
	return fmt.Sprintf("lane %s at capacity (%d)", e.LaneID, e.Capacity)
}

func (e *LaneFullError) Unwrap() error { return ErrLaneFull }
