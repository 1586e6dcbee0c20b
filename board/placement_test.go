package board_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pxt/board-engine/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() []board.LaneConfig {
	return []board.LaneConfig{
		{ID: "ST", Name: "Stations", Capacity: 48, Stations: true},
		{ID: "DOCK", Name: "Dock", Capacity: 6, Critical: true},
		{ID: "CENTER", Name: "Center", Capacity: 6},
		{ID: "TRAIN", Name: "Training", Capacity: 3},
	}
}

func newTestBoard(t *testing.T) *board.Board {
	b, err := board.NewBoard(testLayout())
	require.NoError(t, err)
	return b
}

func TestNewBoard_RejectsBadLayout(t *testing.T) {
	_, err := board.NewBoard([]board.LaneConfig{{ID: "A", Capacity: 0}})
	assert.Error(t, err)

	_, err = board.NewBoard([]board.LaneConfig{{ID: "A", Capacity: 1}, {ID: "A", Capacity: 2}})
	assert.Error(t, err)

	_, err = board.NewBoard([]board.LaneConfig{{ID: "", Capacity: 1}})
	assert.Error(t, err)
}

func TestPlace_CapacityInvariant(t *testing.T) {
	// GIVEN: A lane with capacity 3
	// WHEN: Placing four badges
	// THEN: The fourth is rejected and occupancy never exceeds 3
	b := newTestBoard(t)
	for i := 0; i < 3; i++ {
		_, err := b.Place(fmt.Sprintf("e%d", i), "TRAIN", -1)
		require.NoError(t, err)
	}
	_, err := b.Place("e3", "TRAIN", -1)
	assert.ErrorIs(t, err, board.ErrLaneFull)
	assert.Len(t, b.OccupantsOf("TRAIN"), 3)

	var lfe *board.LaneFullError
	require.True(t, errors.As(err, &lfe))
	assert.Equal(t, "TRAIN", lfe.LaneID)
}

func TestPlace_ExactlyOneLane(t *testing.T) {
	// Re-parenting removes from the old lane before adding to the new one.
	b := newTestBoard(t)
	_, err := b.Place("e1", "DOCK", -1)
	require.NoError(t, err)
	_, err = b.Place("e1", "CENTER", -1)
	require.NoError(t, err)

	assert.Empty(t, b.OccupantsOf("DOCK"))
	assert.Equal(t, []string{"e1"}, b.OccupantsOf("CENTER"))

	lane, _, ok := b.LaneOf("e1")
	require.True(t, ok)
	assert.Equal(t, "CENTER", lane)
}

func TestPlace_RejectedMoveKeepsOldLane(t *testing.T) {
	// GIVEN: e1 sits in DOCK and TRAIN is full
	// WHEN: Moving e1 to TRAIN
	// THEN: The move is rejected and e1 is still in DOCK
	b := newTestBoard(t)
	for i := 0; i < 3; i++ {
		_, err := b.Place(fmt.Sprintf("t%d", i), "TRAIN", -1)
		require.NoError(t, err)
	}
	_, err := b.Place("e1", "DOCK", -1)
	require.NoError(t, err)

	_, err = b.Place("e1", "TRAIN", -1)
	assert.ErrorIs(t, err, board.ErrLaneFull)

	lane, _, ok := b.LaneOf("e1")
	require.True(t, ok)
	assert.Equal(t, "DOCK", lane)
}

func TestPlace_UnknownLane(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.Place("e1", "NOPE", -1)
	assert.ErrorIs(t, err, board.ErrUnknownLane)
}

func TestPlace_StationSlotResolution(t *testing.T) {
	b := newTestBoard(t)

	// No hint: lowest empty slot.
	slot, err := b.Place("e1", "ST", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)

	// Hinted empty slot is honored.
	slot, err = b.Place("e2", "ST", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, slot)

	// Hinted occupied slot: nearest empty, lower index wins the tie.
	slot, err = b.Place("e3", "ST", 10)
	require.NoError(t, err)
	assert.Equal(t, 9, slot)

	slot, err = b.Place("e4", "ST", 10)
	require.NoError(t, err)
	assert.Equal(t, 11, slot)
}

func TestPlace_StationFull(t *testing.T) {
	layout := []board.LaneConfig{{ID: "S", Name: "S", Capacity: 2, Stations: true}}
	b, err := board.NewBoard(layout)
	require.NoError(t, err)

	_, err = b.Place("e1", "S", -1)
	require.NoError(t, err)
	_, err = b.Place("e2", "S", -1)
	require.NoError(t, err)
	_, err = b.Place("e3", "S", 0)
	assert.ErrorIs(t, err, board.ErrLaneFull)
	assert.Equal(t, 0, b.Remaining("S"))
}

func TestUnplace(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.Place("e1", "ST", 5)
	require.NoError(t, err)

	assert.True(t, b.Unplace("e1"))
	assert.False(t, b.Unplace("e1"))
	_, _, ok := b.LaneOf("e1")
	assert.False(t, ok)
	assert.Contains(t, b.EmptySlots("ST"), 5)
}

func TestReset(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.Place("e1", "ST", -1)
	require.NoError(t, err)
	_, err = b.Place("e2", "DOCK", -1)
	require.NoError(t, err)

	b.Reset()
	assert.Zero(t, b.Placed())
	assert.Equal(t, 48, b.Remaining("ST"))
	assert.Equal(t, 6, b.Remaining("DOCK"))
}

func TestOccupantsOf_Deterministic(t *testing.T) {
	b := newTestBoard(t)
	for _, eid := range []string{"zz", "aa", "mm"} {
		_, err := b.Place(eid, "DOCK", -1)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"aa", "mm", "zz"}, b.OccupantsOf("DOCK"))
}
