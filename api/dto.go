/*
dto.go - Request/response data structures

PURPOSE:
  The JSON shapes exchanged with the frontend. Domain types cross the wire
  mostly as-is (board.Badge, board.KPI and friends carry json tags); this
  file holds the envelopes and the request bodies.

SEE ALSO:
  - handlers.go: where these are read and written
*/
package api

import (
	"github.com/pxt/board-engine/board"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UploadResponse reports how many records an ingested CSV produced.
type UploadResponse struct {
	Kind    string `json:"kind"`
	Records int    `json:"records"`
}

// DayRequest selects the derived day.
type DayRequest struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
}

// MoveRequest places a badge. Slot -1 lets the board pick.
type MoveRequest struct {
	EID    string `json:"eid"`
	LaneID string `json:"lane_id"`
	Slot   int    `json:"slot"`
}

// EIDRequest identifies a badge for unplace/presence/break actions.
type EIDRequest struct {
	EID string `json:"eid"`
}

// AssignRequest tunes one auto-assign preview. Zero values fall back to
// the configured defaults; Seed 0 draws a fresh seed.
type AssignRequest struct {
	TargetStations int   `json:"target_stations"`
	Fairness       *bool `json:"fairness,omitempty"`
	CriticalFirst  *bool `json:"critical_first,omitempty"`
	Seed           int64 `json:"seed"`
}

// AssignPreviewResponse carries the uncommitted move list back for review.
type AssignPreviewResponse struct {
	Moves []board.ProposedMove `json:"moves"`
}

// AssignApplyResponse reports how many previewed moves actually landed.
type AssignApplyResponse struct {
	Applied int `json:"applied"`
	Total   int `json:"total"`
}

// RotationRequest starts a quarter rotation toward the named quarter.
type RotationRequest struct {
	To string `json:"to"`
}

// RotationStatusDTO describes the rotation state machine and the labels
// the selector offers.
type RotationStatusDTO struct {
	Quarter string   `json:"quarter"`
	Pending string   `json:"pending,omitempty"`
	Labels  []string `json:"labels,omitempty"`
}

// OccupantDTO is one placed badge within a lane.
type OccupantDTO struct {
	EID  string `json:"eid"`
	Slot int    `json:"slot"`
}

// LaneStateDTO is one lane with its occupants. Slot is -1 for occupants of
// regular lanes.
type LaneStateDTO struct {
	board.LaneConfig
	Occupants []OccupantDTO `json:"occupants"`
	Remaining int           `json:"remaining"`
}

// BoardStateDTO is the whole board in one read.
type BoardStateDTO struct {
	Date        string         `json:"date"`
	Shift       string         `json:"shift"`
	Quarter     string         `json:"quarter"`
	ActiveCodes []string       `json:"active_codes"`
	Badges      []board.Badge  `json:"badges"`
	Lanes       []LaneStateDTO `json:"lanes"`
	KPI         board.KPI      `json:"kpi"`
}
