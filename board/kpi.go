package board

import (
	"github.com/shopspring/decimal"

	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
)

// CodeKPI is one legend chip: scheduled vs assigned headcount for a shift
// code active today.
type CodeKPI struct {
	Code      string          `json:"code"`
	Color     string          `json:"color"`
	Scheduled int             `json:"scheduled"`
	Assigned  int             `json:"assigned"`
	FillRate  decimal.Decimal `json:"fill_rate"`
}

// KPI is the headcount rollup for the current board state.
type KPI struct {
	Scheduled  int             `json:"scheduled"`
	Assigned   int             `json:"assigned"`
	Present    int             `json:"present"`
	Unassigned int             `json:"unassigned"`
	FillRate   decimal.Decimal `json:"fill_rate"`
	Codes      []CodeKPI       `json:"codes"`
}

// fillRate computes assigned/scheduled to two places; zero scheduled is a
// zero rate, not a division error.
func fillRate(assigned, scheduled int) decimal.Decimal {
	if scheduled == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(assigned)).DivRound(decimal.NewFromInt(int64(scheduled)), 2)
}

// computeKPI rolls up the scheduled badges and the placement map. Only
// codes active on the day get legend entries, in active-code order.
func computeKPI(badges []Badge, b *Board, activeCodes []string) KPI {
	k := KPI{}
	schedByCode := make(map[string]int)
	asgByCode := make(map[string]int)

	for _, badge := range badges {
		k.Scheduled++
		if badge.Present {
			k.Present++
		}
		code := roster.ShiftPrefix(badge.ShiftCode)
		if code != "" {
			schedByCode[code]++
		}
		if _, _, placed := b.LaneOf(badge.EID); placed {
			k.Assigned++
			if code != "" {
				asgByCode[code]++
			}
		}
	}
	k.Unassigned = k.Scheduled - k.Assigned
	if k.Unassigned < 0 {
		k.Unassigned = 0
	}
	k.FillRate = fillRate(k.Assigned, k.Scheduled)

	for _, code := range activeCodes {
		k.Codes = append(k.Codes, CodeKPI{
			Code:      code,
			Color:     schedule.Colors[code],
			Scheduled: schedByCode[code],
			Assigned:  asgByCode[code],
			FillRate:  fillRate(asgByCode[code], schedByCode[code]),
		})
	}
	return k
}
