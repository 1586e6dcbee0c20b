package board_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pxt/board-engine/board"
	"github.com/pxt/board-engine/board/store"
	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*board.Session, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	s, err := board.NewSession(testLayout(), roster.DefaultPolicy(), "Q1", mem, zerolog.Nop())
	require.NoError(t, err)
	return s, mem
}

func loadWednesdayRoster(s *board.Session, n int) {
	rows := make([]roster.EmployeeRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, roster.EmployeeRecord{
			EID:            "e" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Name:           "Emp " + string(rune('A'+i%26)),
			Department:     "1211070",
			ManagementArea: "22",
			ShiftCode:      "DA",
		})
	}
	s.SetDate(wednesday, schedule.ShiftDay)
	s.SetRoster(rows)
}

func TestSession_RebuildIdempotent(t *testing.T) {
	// GIVEN: A session with loaded inputs
	// WHEN: Rebuilding twice with identical inputs
	// THEN: The scheduled set is identical and the board is empty both times
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 10)

	s.Rebuild()
	first := s.Badges()
	s.Rebuild()
	second := s.Badges()

	assert.Equal(t, first, second)
	assert.Zero(t, s.KPI().Assigned)
}

func TestSession_ManualStatePreservedAcrossRebuild(t *testing.T) {
	// Operator-set present, lane and break survive a rebuild for eids that
	// remain scheduled; this is an explicit merge step, not an accident.
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 5)

	eid := s.Badges()[0].EID
	require.NoError(t, s.Place(eid, "DOCK", -1))
	require.NoError(t, s.TogglePresence(eid))
	require.NoError(t, s.ToggleBreak(eid))

	s.Rebuild()

	b, ok := s.Badge(eid)
	require.True(t, ok)
	assert.True(t, b.Present)
	assert.NotEmpty(t, b.FlipTime)
	assert.True(t, b.Tags.Break)

	lane, _, placed := s.LaneOf(eid)
	require.True(t, placed)
	assert.Equal(t, "DOCK", lane)
}

func TestSession_ManualStateDroppedForDepartedEIDs(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 3)
	eid := s.Badges()[0].EID
	require.NoError(t, s.TogglePresence(eid))

	// The employee disappears from the roster entirely.
	s.SetRoster(nil)
	_, ok := s.Badge(eid)
	assert.False(t, ok)
}

func TestSession_PlaceAudited(t *testing.T) {
	s, mem := newTestSession(t)
	loadWednesdayRoster(s, 3)
	eid := s.Badges()[0].EID

	require.NoError(t, s.Place(eid, "ST", 4))
	require.NoError(t, s.Place(eid, "DOCK", -1))
	require.NoError(t, s.Unplace(eid))

	entries := s.AuditEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, board.AuditMove, entries[0].Kind)
	assert.Equal(t, "unassigned", entries[0].From)
	assert.Equal(t, "ST#05", entries[0].To)
	assert.Equal(t, "ST#05", entries[1].From)
	assert.Equal(t, "DOCK", entries[1].To)
	assert.Equal(t, "unassigned", entries[2].To)

	// Entries also stream to the history store.
	assert.Len(t, mem.Audit(), 3)

	// Display order is newest-first.
	recent := s.AuditRecent()
	assert.Equal(t, entries[2].ID, recent[0].ID)
}

func TestSession_PlaceUnknownBadge(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 1)
	assert.ErrorIs(t, s.Place("ghost", "DOCK", -1), board.ErrUnknownBadge)
}

func TestSession_PresenceToggle(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 1)
	eid := s.Badges()[0].EID

	require.NoError(t, s.TogglePresence(eid))
	b, _ := s.Badge(eid)
	assert.True(t, b.Present)
	assert.NotEmpty(t, b.FlipTime)

	require.NoError(t, s.TogglePresence(eid))
	b, _ = s.Badge(eid)
	assert.False(t, b.Present)
	assert.Empty(t, b.FlipTime)

	entries := s.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, board.AuditFlip, entries[0].Kind)
	assert.Equal(t, board.AuditUnflip, entries[1].Kind)
}

func TestSession_KPI(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 10)
	badges := s.Badges()

	require.NoError(t, s.Place(badges[0].EID, "DOCK", -1))
	require.NoError(t, s.Place(badges[1].EID, "ST", -1))
	require.NoError(t, s.TogglePresence(badges[0].EID))

	k := s.KPI()
	assert.Equal(t, 10, k.Scheduled)
	assert.Equal(t, 2, k.Assigned)
	assert.Equal(t, 8, k.Unassigned)
	assert.Equal(t, 1, k.Present)
	assert.True(t, k.FillRate.Equal(decimal.NewFromFloat(0.2)), "fill rate %s", k.FillRate)

	// Wednesday day shift legend carries DA and DB.
	require.Len(t, k.Codes, 2)
	assert.Equal(t, "DA", k.Codes[0].Code)
	assert.Equal(t, 10, k.Codes[0].Scheduled)
	assert.Equal(t, 2, k.Codes[0].Assigned)
	assert.Equal(t, "DB", k.Codes[1].Code)
	assert.Zero(t, k.Codes[1].Scheduled)
}

func TestSession_AutoAssignApply(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 20)

	moves := s.PreviewAssign(board.AssignOptions{TargetStations: 5, Seed: 42})
	require.NotEmpty(t, moves)
	assert.Zero(t, s.KPI().Assigned, "preview must not commit")

	applied := s.ApplyAssign(moves)
	assert.Equal(t, len(moves), applied)
	assert.Equal(t, len(moves), s.KPI().Assigned)
}

func TestSession_AutoAssignExcludesOffBoardBadges(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetDate(wednesday, schedule.ShiftDay)
	s.SetRoster([]roster.EmployeeRecord{
		emp("100", "Jane", "DA"),
		emp("200", "Omar", "DA"),
	})
	s.SetVetVto([]roster.VetVtoRecord{{EID: "200", Kind: roster.KindVTO, Date: wednesday}})

	// VTO removes 200 from the scheduled set entirely, so the pool is just 100.
	moves := s.PreviewAssign(board.AssignOptions{TargetStations: 10, Seed: 1})
	require.Len(t, moves, 1)
	assert.Equal(t, "100", moves[0].EID)
}

func TestSession_QuarterRotation(t *testing.T) {
	// GIVEN: Placements on the board in Q1
	// WHEN: Requesting and confirming rotation to Q2
	// THEN: The export reflects the PRE-reset placements and the board is empty
	s, mem := newTestSession(t)
	loadWednesdayRoster(s, 6)
	badges := s.Badges()
	require.NoError(t, s.Place(badges[0].EID, "DOCK", -1))
	require.NoError(t, s.Place(badges[1].EID, "ST", 3))
	require.NoError(t, s.TogglePresence(badges[0].EID))

	require.NoError(t, s.RequestRotation("Q2"))
	snap, err := s.ConfirmRotation()
	require.NoError(t, err)

	assert.Equal(t, "Q1", snap.Quarter, "snapshot keyed by the outgoing quarter")
	require.Len(t, snap.Rows, 2)

	byEID := map[string]board.SnapshotRow{}
	for _, r := range snap.Rows {
		byEID[r.EID] = r
	}
	dock := byEID[badges[0].EID]
	assert.Equal(t, "DOCK", dock.PathID)
	assert.True(t, dock.Present)
	assert.Empty(t, dock.Station)
	st := byEID[badges[1].EID]
	assert.Equal(t, "ST", st.PathID)
	assert.Equal(t, "04", st.Station)

	// Post-reset state.
	assert.Equal(t, "Q2", s.Quarter())
	assert.Zero(t, s.KPI().Assigned)

	// Fairness memory recorded and persisted.
	assert.Equal(t, "DOCK", s.LastLanes()[badges[0].EID])
	persisted, err := mem.LastLanes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ST", persisted[badges[1].EID])

	// Snapshot archived under the outgoing quarter.
	got, ok, err := mem.GetSnapshot(context.Background(), "Q1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Rows, 2)
}

func TestSession_QuarterRotationDecline(t *testing.T) {
	s, mem := newTestSession(t)
	loadWednesdayRoster(s, 4)
	require.NoError(t, s.Place(s.Badges()[0].EID, "DOCK", -1))

	require.NoError(t, s.RequestRotation("Q2"))
	prev, err := s.DeclineRotation()
	require.NoError(t, err)
	assert.Equal(t, "Q1", prev)

	// No export, no reset.
	assert.Equal(t, "Q1", s.Quarter())
	assert.Equal(t, 1, s.KPI().Assigned)
	snaps, err := mem.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestSession_RotationStateMachine(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.ConfirmRotation()
	assert.ErrorIs(t, err, board.ErrNoRotationPending)
	_, err = s.DeclineRotation()
	assert.ErrorIs(t, err, board.ErrNoRotationPending)

	require.NoError(t, s.RequestRotation("Q2"))
	assert.ErrorIs(t, s.RequestRotation("Q3"), board.ErrRotationPending)
	pending, ok := s.PendingRotation()
	require.True(t, ok)
	assert.Equal(t, "Q2", pending)
}

func TestSession_FairnessMemoryUsedNextQuarter(t *testing.T) {
	// An employee who held stations in the outgoing quarter is passed over
	// for stations next quarter while alternatives remain.
	mem := store.NewMemory()
	layout := []board.LaneConfig{{ID: "ST", Name: "Stations", Capacity: 4, Stations: true}}
	s, err := board.NewSession(layout, roster.DefaultPolicy(), "Q1", mem, zerolog.Nop())
	require.NoError(t, err)

	s.SetDate(wednesday, schedule.ShiftDay)
	s.SetRoster([]roster.EmployeeRecord{emp("100", "Jane", "DA"), emp("200", "Omar", "DA")})
	require.NoError(t, s.Place("100", "ST", 0))
	require.NoError(t, s.RequestRotation("Q2"))
	_, err = s.ConfirmRotation()
	require.NoError(t, err)

	moves := s.PreviewAssign(board.AssignOptions{TargetStations: 1, Fairness: true, Seed: 9})
	require.Len(t, moves, 1)
	assert.Equal(t, "200", moves[0].EID)
}

func TestSession_Search(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetDate(wednesday, schedule.ShiftDay)
	s.SetRoster([]roster.EmployeeRecord{emp("100", "Jane Doe", "DA"), emp("200", "Omar Ali", "DA")})

	got := s.Search("jane")
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].EID)

	got = s.Search("20")
	require.Len(t, got, 1)
	assert.Equal(t, "200", got[0].EID)

	assert.Empty(t, s.Search(""))
}

func TestWriteSnapshotCSV(t *testing.T) {
	snap := board.QuarterSnapshot{
		Quarter: "Q1",
		Rows: []board.SnapshotRow{{
			Date: "2024-06-05", ShiftType: "day", Quarter: "Q1", EID: "100",
			Name: "Jane", PathID: "DOCK", PathName: "Dock", Present: true,
			ShiftCode: "DA", Tags: "VET", FlipTime: "06:12",
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, board.WriteSnapshotCSV(&buf, snap))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Shift Type,Quarter,EID,Name,Path ID,Path Name,Station,Present,Shift Code,Tags,Flip Time", lines[0])
	assert.Equal(t, "2024-06-05,day,Q1,100,Jane,DOCK,Dock,,true,DA,VET,06:12", lines[1])
}

func TestWriteScheduleCSV(t *testing.T) {
	badges := []board.Badge{
		{EID: "100", Name: "Jane", ShiftCode: "DA", ManagerID: "M1", Tags: board.Tags{VET: true}},
		{EID: "200", Name: "Omar", ShiftCode: "DB"},
	}
	var buf bytes.Buffer
	require.NoError(t, board.WriteScheduleCSV(&buf, "2024-06-05", "day", badges))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Shift Type,EID,Name,Shift Code,Manager,Tags", lines[0])
	assert.Equal(t, "2024-06-05,day,100,Jane,DA,M1,VET", lines[1])
	assert.Equal(t, "2024-06-05,day,200,Omar,DB,,", lines[2])
}

func TestWriteAuditCSV(t *testing.T) {
	s, _ := newTestSession(t)
	loadWednesdayRoster(s, 2)
	eid := s.Badges()[0].EID
	require.NoError(t, s.Place(eid, "DOCK", -1))
	require.NoError(t, s.TogglePresence(eid))

	var buf bytes.Buffer
	require.NoError(t, board.WriteAuditCSV(&buf, s.AuditEntries()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ts,kind,eid,from,to", lines[0])
	assert.Contains(t, lines[1], ",move,")
	assert.Contains(t, lines[2], ",flip,")
}
