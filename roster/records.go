/*
records.go - Canonical record types decoded from source tables

PURPOSE:
  Turns raw Tables into typed records: the roster rows the board schedules
  from, and the five exception shapes (swap-out, swap-in, VET/VTO, vacation,
  labor-share) that adjust who is scheduled on a given date.

DISCARD RULES:
  - Any record whose eid normalizes to "" is dropped silently.
  - Exception records whose status is not approved/accepted are dropped.
  - Dates are kept as raw strings; an unparseable date is treated as ABSENT
    downstream (the exception applies regardless of date), never as an error.

SEE ALSO:
  - normalize.go: alias tables and value scrubbing
  - board/resolve.go: precedence rules applied over these records
*/
package roster

import (
	"strconv"
	"strings"
)

// EmployeeRecord is one normalized roster row. EID is the natural key.
type EmployeeRecord struct {
	EID            string
	Name           string
	Department     string
	ManagementArea string
	ShiftCode      string
	ManagerID      string
}

// SwapRecord is an approved swap-out or swap-in row. ToCode is only
// meaningful on swap-ins, where it optionally substitutes the effective
// shift code for the day.
type SwapRecord struct {
	EID    string
	Date   string
	ToCode string
}

// VetVtoKind distinguishes extra-time from time-off rows in the shared file.
type VetVtoKind string

const (
	KindVET VetVtoKind = "vet"
	KindVTO VetVtoKind = "vto"
)

// VetVtoRecord is an accepted VET or VTO row. AcceptedCount is nil when the
// column is absent or unparseable; only an explicit 0 disables the record.
type VetVtoRecord struct {
	EID           string
	Kind          VetVtoKind
	Date          string
	AcceptedCount *int
}

// VacationRecord is an inclusive leave range.
type VacationRecord struct {
	EID   string
	Start string
	End   string
}

// ShareDirection says which way a labor-share row moves headcount.
type ShareDirection string

const (
	ShareIn  ShareDirection = "in"
	ShareOut ShareDirection = "out"
)

// LaborShareRecord comes in two shapes: by-eid (EID set, Count 0) flips one
// employee, by-count (EID empty, Count > 0) moves N heads.
type LaborShareRecord struct {
	EID       string
	Direction ShareDirection
	Count     int
	Date      string
}

// =============================================================================
// DECODERS
// =============================================================================

// DecodeRoster normalizes roster rows. Rows without a usable eid are
// discarded; every other field degrades to "".
func DecodeRoster(t Table) []EmployeeRecord {
	fm := RosterAliases.Resolve(t.Headers)
	out := make([]EmployeeRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		eid := NormalizeEID(fm.Get(row, FieldEID))
		if eid == "" {
			continue
		}
		out = append(out, EmployeeRecord{
			EID:            eid,
			Name:           fm.Get(row, FieldName),
			Department:     fm.Get(row, FieldDept),
			ManagementArea: fm.Get(row, FieldArea),
			ShiftCode:      NormalizeShiftCode(fm.Get(row, FieldShiftCode)),
			ManagerID:      fm.Get(row, FieldManager),
		})
	}
	return out
}

// DecodeSwaps normalizes a swap-out or swap-in file, keeping only approved
// rows. ToCode is upper-cased but NOT reduced: the OFF/PTO/VAC sentinels
// must survive for the resolver to see.
func DecodeSwaps(t Table) []SwapRecord {
	fm := SwapAliases.Resolve(t.Headers)
	var out []SwapRecord
	for _, row := range t.Rows {
		eid := NormalizeEID(fm.Get(row, FieldEID))
		if eid == "" || !StatusApproved(fm.Get(row, FieldStatus)) {
			continue
		}
		out = append(out, SwapRecord{
			EID:    eid,
			Date:   fm.Get(row, FieldDate),
			ToCode: strings.ToUpper(fm.Get(row, FieldToCode)),
		})
	}
	return out
}

// DecodeVetVto normalizes the VET/VTO file, keeping only accepted rows with
// a recognizable kind.
func DecodeVetVto(t Table) []VetVtoRecord {
	fm := VetVtoAliases.Resolve(t.Headers)
	var out []VetVtoRecord
	for _, row := range t.Rows {
		eid := NormalizeEID(fm.Get(row, FieldEID))
		if eid == "" || !StatusApproved(fm.Get(row, FieldStatus)) {
			continue
		}
		var kind VetVtoKind
		switch Canon(fm.Get(row, FieldKind)) {
		case "vet", "extratime", "voluntaryextratime":
			kind = KindVET
		case "vto", "timeoff", "voluntarytimeoff":
			kind = KindVTO
		default:
			continue
		}
		rec := VetVtoRecord{EID: eid, Kind: kind, Date: fm.Get(row, FieldDate)}
		if raw := fm.Get(row, FieldCount); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				rec.AcceptedCount = &n
			}
		}
		out = append(out, rec)
	}
	return out
}

// DecodeVacations normalizes the leave file. A missing end date collapses
// the range to the start day.
func DecodeVacations(t Table) []VacationRecord {
	fm := VacationAliases.Resolve(t.Headers)
	var out []VacationRecord
	for _, row := range t.Rows {
		eid := NormalizeEID(fm.Get(row, FieldEID))
		start := fm.Get(row, FieldStart)
		if eid == "" || start == "" {
			continue
		}
		end := fm.Get(row, FieldEnd)
		if end == "" {
			end = start
		}
		out = append(out, VacationRecord{EID: eid, Start: start, End: end})
	}
	return out
}

// DecodeLaborShares normalizes the labor-share file. Rows with neither an
// eid nor a positive count carry no information and are dropped.
func DecodeLaborShares(t Table) []LaborShareRecord {
	fm := LaborShareAliases.Resolve(t.Headers)
	var out []LaborShareRecord
	for _, row := range t.Rows {
		if !StatusApproved(fm.Get(row, FieldStatus)) {
			continue
		}
		var dir ShareDirection
		switch Canon(fm.Get(row, FieldDirection)) {
		case "in", "inbound", "sharein":
			dir = ShareIn
		case "out", "outbound", "shareout":
			dir = ShareOut
		default:
			continue
		}
		rec := LaborShareRecord{
			EID:       NormalizeEID(fm.Get(row, FieldEID)),
			Direction: dir,
			Date:      fm.Get(row, FieldDate),
		}
		if raw := fm.Get(row, FieldCount); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				rec.Count = n
			}
		}
		if rec.EID == "" && rec.Count == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}
