/*
autoassign.go - Fairness-aware placement proposal

PURPOSE:
  Given the unassigned pool and the board's remaining capacity, propose a
  full placement without committing anything. The supervisor reviews the
  preview and applies or cancels it; Apply goes through the normal
  placement path so every committed move is audited and capacity-checked.

ALGORITHM:
  1. Shuffle the pool with a seeded PRNG (coverage matters, distribution
     does not; a fixed seed makes runs reproducible).
  2. Fill stations lanes first, up to min(target, free station slots).
  3. Fill the remaining named lanes to capacity, critical lanes first when
     criticalFirst is set, otherwise last.
  4. Fairness mode: while alternatives remain in the queue, skip a
     candidate whose last-quarter lane was the same target. Skipped
     candidates stay queued for other lanes; nobody is ever discarded.

TERMINATION:
  Stops when the pool empties or no lane has remaining capacity. Each eid
  appears in at most one proposed move.
*/
package board

import (
	"math/rand"
)

// AssignOptions configures one auto-assign preview.
type AssignOptions struct {
	// TargetStations caps how many station slots to fill.
	TargetStations int
	// Fairness avoids assigning an employee to the lane they held last
	// quarter while alternative candidates remain.
	Fairness bool
	// CriticalFirst processes critical lanes before the rest.
	CriticalFirst bool
	// Seed drives the pool shuffle. Reuse a seed to reproduce a preview.
	Seed int64
}

// ProposeAssignments computes a placement preview. The board is only read;
// nothing is committed. pool must already be filtered to assignable badges
// (see Session.assignPool).
func ProposeAssignments(pool []Badge, b *Board, lastLane map[string]string, opts AssignOptions) []ProposedMove {
	queue := make([]string, 0, len(pool))
	for _, badge := range pool {
		queue = append(queue, badge.EID)
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	var moves []ProposedMove

	// Stations first, up to the target.
	remaining := opts.TargetStations
	for _, cfg := range b.Layout() {
		if !cfg.Stations || remaining <= 0 {
			continue
		}
		slots := b.EmptySlots(cfg.ID)
		for _, slot := range slots {
			if remaining <= 0 || len(queue) == 0 {
				break
			}
			var eid string
			eid, queue = nextCandidate(queue, cfg.ID, opts.Fairness, lastLane)
			moves = append(moves, ProposedMove{EID: eid, LaneID: cfg.ID, Slot: slot})
			remaining--
		}
	}

	// Named lanes in priority order.
	for _, cfg := range namedLaneOrder(b.Layout(), opts.CriticalFirst) {
		free := b.Remaining(cfg.ID)
		for i := 0; i < free && len(queue) > 0; i++ {
			var eid string
			eid, queue = nextCandidate(queue, cfg.ID, opts.Fairness, lastLane)
			moves = append(moves, ProposedMove{EID: eid, LaneID: cfg.ID, Slot: -1})
		}
	}

	return moves
}

// nextCandidate pops the first queued eid acceptable for the lane. With
// fairness on, candidates whose last-quarter lane matches are passed over
// while any alternative remains; if everyone repeats, the front candidate
// is taken anyway.
func nextCandidate(queue []string, laneID string, fairness bool, lastLane map[string]string) (string, []string) {
	if !fairness {
		return queue[0], queue[1:]
	}
	for i, eid := range queue {
		if lastLane[eid] != laneID {
			rest := make([]string, 0, len(queue)-1)
			rest = append(rest, queue[:i]...)
			rest = append(rest, queue[i+1:]...)
			return eid, rest
		}
	}
	return queue[0], queue[1:]
}

// namedLaneOrder returns the non-stations lanes with critical lanes moved
// to the front or the back, preserving declaration order within each group.
func namedLaneOrder(layout []LaneConfig, criticalFirst bool) []LaneConfig {
	var critical, regular []LaneConfig
	for _, cfg := range layout {
		if cfg.Stations {
			continue
		}
		if cfg.Critical {
			critical = append(critical, cfg)
		} else {
			regular = append(regular, cfg)
		}
	}
	if criticalFirst {
		return append(critical, regular...)
	}
	return append(regular, critical...)
}
