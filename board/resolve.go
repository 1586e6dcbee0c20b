/*
resolve.go - Exception precedence over the eligible population

PURPOSE:
  Takes the base eligible population for a date and applies the exception
  tables in their fixed precedence order to produce the day's scheduled
  badge set. Later rules override earlier ones for the same employee, which
  is why a swapped-out employee who accepted VET still shows up tagged VET.

ORDER OF APPLICATION:
  1. vacation ranges        -> unscheduled
  2. approved swap-out      -> unscheduled, tag swapout
  3. approved swap-in       -> scheduled, tag swapin, optional code
                               substitute; OFF/PTO/VAC substitute drops the day
  4. accepted VET / VTO     -> scheduled / unscheduled (explicit 0 count
                               disables the record)
  5. labor-share            -> by-eid flips one employee; by-count IN adds
                               synthetic placeholders, by-count OUT drops N
                               employees in ascending-eid order

SCOPE RULE:
  Exceptions only act on employees that passed the eligibility filter. A
  swap-in for someone in an unrelated department is ignored; exceptions
  never import employees. The one structural exception is by-count
  labor-share IN, which names no eid and materializes placeholders.

SEE ALSO:
  - roster/records.go: the decoded exception shapes
  - session.go: feeds this from the rebuild pipeline
*/
package board

import (
	"fmt"
	"sort"

	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
)

// ExceptionTables bundles the optional exception inputs for one derivation.
// Nil slices mean "file not loaded".
type ExceptionTables struct {
	Vacations   []roster.VacationRecord
	SwapOuts    []roster.SwapRecord
	SwapIns     []roster.SwapRecord
	VetVto      []roster.VetVtoRecord
	LaborShares []roster.LaborShareRecord
}

// offSentinels are substitute codes that mean "day off" rather than a
// like-for-like shift change.
var offSentinels = map[string]bool{"OFF": true, "PTO": true, "VAC": true}

type resolveEntry struct {
	rec       roster.EmployeeRecord
	scheduled bool
	tags      Tags
}

// dateApplies reports whether an exception's own date constrains it to the
// selected date. An absent or unparseable date is treated as no constraint.
func dateApplies(recDate, selected string) bool {
	rd, ok := schedule.ParseLocalDate(recDate)
	if !ok {
		return true
	}
	sd, ok := schedule.ParseLocalDate(selected)
	if !ok {
		return true
	}
	return rd.Equal(sd)
}

// ResolveScheduled applies the exception tables to the eligible population
// and returns the final scheduled badge set, sorted by name then eid.
func ResolveScheduled(eligible []roster.EmployeeRecord, x ExceptionTables, date string) []Badge {
	entries := make(map[string]*resolveEntry, len(eligible))
	order := make([]string, 0, len(eligible))
	for _, rec := range eligible {
		if _, dup := entries[rec.EID]; dup {
			continue
		}
		entries[rec.EID] = &resolveEntry{rec: rec, scheduled: true}
		order = append(order, rec.EID)
	}

	// 1. vacation ranges
	for _, v := range x.Vacations {
		e, ok := entries[v.EID]
		if !ok {
			continue
		}
		if schedule.DateInRange(date, v.Start, v.End) {
			e.scheduled = false
		}
	}

	// 2. approved swap-out
	for _, s := range x.SwapOuts {
		e, ok := entries[s.EID]
		if !ok || !dateApplies(s.Date, date) {
			continue
		}
		e.scheduled = false
		e.tags.SwapOut = true
	}

	// 3. approved swap-in, optionally substituting the effective code
	for _, s := range x.SwapIns {
		e, ok := entries[s.EID]
		if !ok || !dateApplies(s.Date, date) {
			continue
		}
		if offSentinels[s.ToCode] {
			e.scheduled = false
			e.tags.SwapIn = true
			continue
		}
		e.scheduled = true
		e.tags.SwapIn = true
		if s.ToCode != "" {
			if code := roster.NormalizeShiftCode(s.ToCode); code != "" {
				e.rec.ShiftCode = code
			}
		}
	}

	// 4. accepted VET / VTO
	for _, v := range x.VetVto {
		e, ok := entries[v.EID]
		if !ok || !dateApplies(v.Date, date) {
			continue
		}
		if v.AcceptedCount != nil && *v.AcceptedCount == 0 {
			continue
		}
		switch v.Kind {
		case roster.KindVET:
			e.scheduled = true
			e.tags.VET = true
		case roster.KindVTO:
			e.scheduled = false
			e.tags.VTO = true
		}
	}

	// 5. labor-share
	synthetic := 0
	for _, ls := range x.LaborShares {
		if !dateApplies(ls.Date, date) {
			continue
		}
		if ls.EID != "" {
			e, ok := entries[ls.EID]
			if !ok {
				continue
			}
			e.scheduled = ls.Direction == roster.ShareIn
			e.tags.Share = true
			continue
		}
		switch ls.Direction {
		case roster.ShareIn:
			for i := 0; i < ls.Count; i++ {
				synthetic++
				eid := fmt.Sprintf("LS-%02d", synthetic)
				if _, dup := entries[eid]; dup {
					continue
				}
				entries[eid] = &resolveEntry{
					rec:       roster.EmployeeRecord{EID: eid, Name: "Labor Share"},
					scheduled: true,
					tags:      Tags{Share: true},
				}
				order = append(order, eid)
			}
		case roster.ShareOut:
			// Deterministic selection: ascending eid over currently
			// scheduled, not-yet-flagged employees.
			var candidates []string
			for eid, e := range entries {
				if e.scheduled && !e.tags.Share {
					candidates = append(candidates, eid)
				}
			}
			sort.Strings(candidates)
			for i := 0; i < ls.Count && i < len(candidates); i++ {
				e := entries[candidates[i]]
				e.scheduled = false
				e.tags.Share = true
			}
		}
	}

	var out []Badge
	for _, eid := range order {
		e := entries[eid]
		if !e.scheduled {
			continue
		}
		out = append(out, Badge{
			EID:       e.rec.EID,
			Name:      e.rec.Name,
			ShiftCode: e.rec.ShiftCode,
			ManagerID: e.rec.ManagerID,
			Planned:   true,
			Tags:      e.tags,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EID < out[j].EID
	})
	return out
}
