package board_test

import (
	"testing"

	"github.com/pxt/board-engine/board"
	"github.com/pxt/board-engine/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wednesday = "2024-06-05"

func emp(eid, name, code string) roster.EmployeeRecord {
	return roster.EmployeeRecord{EID: eid, Name: name, Department: "1211070", ManagementArea: "22", ShiftCode: code}
}

func findBadge(t *testing.T, badges []board.Badge, eid string) board.Badge {
	t.Helper()
	for _, b := range badges {
		if b.EID == eid {
			return b
		}
	}
	t.Fatalf("badge %s not in scheduled set", eid)
	return board.Badge{}
}

func hasBadge(badges []board.Badge, eid string) bool {
	for _, b := range badges {
		if b.EID == eid {
			return true
		}
	}
	return false
}

func TestResolve_NoExceptions(t *testing.T) {
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, board.ExceptionTables{}, wednesday)
	require.Len(t, got, 1)
	assert.True(t, got[0].Planned)
	assert.False(t, got[0].Present)
}

func TestResolve_VacationDropsDay(t *testing.T) {
	x := board.ExceptionTables{
		Vacations: []roster.VacationRecord{{EID: "100", Start: "2024-06-01", End: "2024-06-10"}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Empty(t, got)

	// Outside the range the employee is back.
	got = board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, "2024-06-12")
	assert.Len(t, got, 1)
}

func TestResolve_SwapOutRemoves(t *testing.T) {
	x := board.ExceptionTables{
		SwapOuts: []roster.SwapRecord{{EID: "100", Date: wednesday}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Empty(t, got)
}

func TestResolve_SwapOutOtherDateIgnored(t *testing.T) {
	x := board.ExceptionTables{
		SwapOuts: []roster.SwapRecord{{EID: "100", Date: "2024-06-06"}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Len(t, got, 1)
}

func TestResolve_SwapOutUnparseableDateApplies(t *testing.T) {
	// An unparseable date is treated as absent: the record applies.
	x := board.ExceptionTables{
		SwapOuts: []roster.SwapRecord{{EID: "100", Date: "06/05ish"}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Empty(t, got)
}

func TestResolve_SwapInSubstituteCode(t *testing.T) {
	x := board.ExceptionTables{
		SwapIns: []roster.SwapRecord{{EID: "100", Date: wednesday, ToCode: "DB"}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	require.Len(t, got, 1)
	assert.Equal(t, "DB", got[0].ShiftCode)
	assert.True(t, got[0].Tags.SwapIn)
}

func TestResolve_SwapInOffSentinelDropsDay(t *testing.T) {
	for _, sentinel := range []string{"OFF", "PTO", "VAC"} {
		x := board.ExceptionTables{
			SwapIns: []roster.SwapRecord{{EID: "100", Date: wednesday, ToCode: sentinel}},
		}
		got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
		assert.Empty(t, got, "sentinel %s", sentinel)
	}
}

func TestResolve_SwapInRestoresSwappedOut(t *testing.T) {
	// Swap-in is applied after swap-out, so it wins for the same employee.
	x := board.ExceptionTables{
		SwapOuts: []roster.SwapRecord{{EID: "100", Date: wednesday}},
		SwapIns:  []roster.SwapRecord{{EID: "100", Date: wednesday}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	require.Len(t, got, 1)
	assert.True(t, got[0].Tags.SwapOut)
	assert.True(t, got[0].Tags.SwapIn)
}

func TestResolve_VetOverridesSwapOut(t *testing.T) {
	// GIVEN: E1 eligible, swap-out approved for the day, VET accepted for the day
	// WHEN: Resolving
	// THEN: VET applies after swap-out; E1 is scheduled and tagged vet
	x := board.ExceptionTables{
		SwapOuts: []roster.SwapRecord{{EID: "E1", Date: "2024-06-05"}},
		VetVto:   []roster.VetVtoRecord{{EID: "E1", Kind: roster.KindVET, Date: "2024-06-05"}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("E1", "Jane", "DA")}, x, "2024-06-05")
	require.Len(t, got, 1)
	b := findBadge(t, got, "E1")
	assert.True(t, b.Tags.VET)
	assert.True(t, b.Tags.SwapOut)
}

func TestResolve_VtoRemoves(t *testing.T) {
	x := board.ExceptionTables{
		VetVto: []roster.VetVtoRecord{{EID: "100", Kind: roster.KindVTO, Date: wednesday}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Empty(t, got)
}

func TestResolve_ZeroAcceptedCountIgnored(t *testing.T) {
	zero := 0
	x := board.ExceptionTables{
		VetVto: []roster.VetVtoRecord{{EID: "100", Kind: roster.KindVTO, Date: wednesday, AcceptedCount: &zero}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Len(t, got, 1, "an explicit 0 disables the record")
}

func TestResolve_ExceptionForUnknownEIDIgnored(t *testing.T) {
	// Exceptions never import employees who failed eligibility.
	x := board.ExceptionTables{
		SwapIns: []roster.SwapRecord{{EID: "999", Date: wednesday}},
		VetVto:  []roster.VetVtoRecord{{EID: "888", Kind: roster.KindVET}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].EID)
}

func TestResolve_LaborShareByEID(t *testing.T) {
	x := board.ExceptionTables{
		LaborShares: []roster.LaborShareRecord{{EID: "100", Direction: roster.ShareOut}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	assert.Empty(t, got)

	x = board.ExceptionTables{
		VetVto:      []roster.VetVtoRecord{{EID: "100", Kind: roster.KindVTO}},
		LaborShares: []roster.LaborShareRecord{{EID: "100", Direction: roster.ShareIn}},
	}
	got = board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	require.Len(t, got, 1)
	assert.True(t, got[0].Tags.Share)
}

func TestResolve_LaborShareInByCount(t *testing.T) {
	x := board.ExceptionTables{
		LaborShares: []roster.LaborShareRecord{{Direction: roster.ShareIn, Count: 3}},
	}
	got := board.ResolveScheduled([]roster.EmployeeRecord{emp("100", "Jane", "DA")}, x, wednesday)
	require.Len(t, got, 4)
	assert.True(t, hasBadge(got, "LS-01"))
	assert.True(t, hasBadge(got, "LS-03"))
	assert.Equal(t, "Labor Share", findBadge(t, got, "LS-02").Name)
}

func TestResolve_LaborShareOutByCount_AscendingEID(t *testing.T) {
	// Deterministic tie-break: the two lowest eids are converted out.
	eligible := []roster.EmployeeRecord{
		emp("300", "Cara", "DA"),
		emp("100", "Jane", "DA"),
		emp("200", "Omar", "DA"),
	}
	x := board.ExceptionTables{
		LaborShares: []roster.LaborShareRecord{{Direction: roster.ShareOut, Count: 2}},
	}
	got := board.ResolveScheduled(eligible, x, wednesday)
	require.Len(t, got, 1)
	assert.Equal(t, "300", got[0].EID)
}

func TestResolve_SortedByNameThenEID(t *testing.T) {
	eligible := []roster.EmployeeRecord{
		emp("2", "Zed", "DA"),
		emp("3", "Amy", "DA"),
		emp("1", "Zed", "DA"),
	}
	got := board.ResolveScheduled(eligible, board.ExceptionTables{}, wednesday)
	require.Len(t, got, 3)
	assert.Equal(t, "Amy", got[0].Name)
	assert.Equal(t, "1", got[1].EID)
	assert.Equal(t, "2", got[2].EID)
}

func TestResolve_DuplicateEIDKeepsFirst(t *testing.T) {
	eligible := []roster.EmployeeRecord{
		emp("100", "Jane", "DA"),
		emp("100", "Jane Again", "DB"),
	}
	got := board.ResolveScheduled(eligible, board.ExceptionTables{}, wednesday)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane", got[0].Name)
}

func TestTagsSummary(t *testing.T) {
	tags := board.Tags{VET: true, SwapOut: true, Break: true}
	assert.Equal(t, "VET|SwapOUT", tags.Summary())
	assert.Equal(t, "", board.Tags{Break: true}.Summary())
}
