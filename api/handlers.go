/*
handlers.go - HTTP API handlers for the scheduling board

PURPOSE:
  Exposes the board session over REST. Handles HTTP request/response, JSON
  and CSV serialization, and delegates every decision to the board package.

ENDPOINTS:
  Ingest:
    POST   /api/uploads/{kind}        Upload one source CSV (multipart "file")
                                      kinds: roster, swaps-out, swaps-in,
                                      vet-vto, vacations, labor-share

  Board:
    GET    /api/board                 Full board state
    PUT    /api/board/day             Select date and shift type
    POST   /api/board/place           Place or move a badge
    POST   /api/board/unplace         Return a badge to unassigned
    POST   /api/board/presence        Toggle present/absent
    POST   /api/board/break           Toggle the break tag
    GET    /api/board/search?q=       Find badges by eid or name fragment

  Auto-assign:
    POST   /api/assign/preview        Propose moves without committing
    POST   /api/assign/apply          Commit a previewed move list

  Rotation:
    GET    /api/rotation              Current quarter + pending target
    POST   /api/rotation/request      Stage a rotation
    POST   /api/rotation/confirm      Export, archive, reset, switch quarter
    POST   /api/rotation/decline      Drop the staged rotation
    GET    /api/rotation/snapshots    List archived quarters
    GET    /api/rotation/snapshots/{quarter}  Download one archive as CSV

  Audit and export:
    GET    /api/audit                 Recent entries, newest first
    GET    /api/audit/export          Full retained trail as CSV
    GET    /api/export/board          Current placements as CSV

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown badge, lane or archived quarter
  - 409: Lane full, rotation already pending
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pxt/board-engine/board"
	"github.com/pxt/board-engine/metrics"
	"github.com/pxt/board-engine/roster"
	"github.com/pxt/board-engine/schedule"
)

// maxUploadBytes caps a single CSV upload.
const maxUploadBytes = 16 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session *board.Session
	Metrics *metrics.Sink

	// AssignDefaults seed the preview when the request leaves fields zero.
	AssignDefaults board.AssignOptions

	// QuarterLabels populate the rotation selector.
	QuarterLabels []string

	// Hist is consulted for archived snapshots; nil disables the archive
	// endpoints' lookups.
	Hist board.HistoryStore
}

// NewHandler creates a new handler around a live session.
func NewHandler(session *board.Session, sink *metrics.Sink, defaults board.AssignOptions, hist board.HistoryStore) *Handler {
	return &Handler{Session: session, Metrics: sink, AssignDefaults: defaults, Hist: hist}
}

// refreshGauges pushes the current KPI into Prometheus.
func (h *Handler) refreshGauges() {
	if h.Metrics == nil {
		return
	}
	k := h.Session.KPI()
	h.Metrics.SetBoardCounts(k.Scheduled, k.Assigned, k.Present, k.Unassigned)
}

// =============================================================================
// INGEST
// =============================================================================

// UploadCSV ingests one source file and triggers a rebuild.
// POST /api/uploads/{kind}
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing multipart file field", err)
		return
	}
	defer file.Close()

	table, err := roster.ReadTable(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV", err)
		return
	}

	var records int
	switch kind {
	case "roster":
		recs := roster.DecodeRoster(table)
		h.Session.SetRoster(recs)
		records = len(recs)
	case "swaps-out":
		recs := roster.DecodeSwaps(table)
		h.Session.SetSwapOuts(recs)
		records = len(recs)
	case "swaps-in":
		recs := roster.DecodeSwaps(table)
		h.Session.SetSwapIns(recs)
		records = len(recs)
	case "vet-vto":
		recs := roster.DecodeVetVto(table)
		h.Session.SetVetVto(recs)
		records = len(recs)
	case "vacations":
		recs := roster.DecodeVacations(table)
		h.Session.SetVacations(recs)
		records = len(recs)
	case "labor-share":
		recs := roster.DecodeLaborShares(table)
		h.Session.SetLaborShares(recs)
		records = len(recs)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown upload kind %q", kind), nil)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRebuild()
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, UploadResponse{Kind: kind, Records: records})
}

// =============================================================================
// BOARD STATE
// =============================================================================

// GetBoard returns the whole board in one read.
// GET /api/board
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.boardState())
}

func (h *Handler) boardState() BoardStateDTO {
	s := h.Session
	dto := BoardStateDTO{
		Date:        s.Date(),
		Shift:       string(s.Shift()),
		Quarter:     s.Quarter(),
		ActiveCodes: s.ActiveCodes(),
		Badges:      s.Badges(),
		KPI:         s.KPI(),
	}
	for _, lane := range s.Layout() {
		ls := LaneStateDTO{LaneConfig: lane, Occupants: []OccupantDTO{}}
		for _, eid := range s.OccupantsOf(lane.ID) {
			slot := -1
			if _, sl, ok := s.LaneOf(eid); ok {
				slot = sl
			}
			ls.Occupants = append(ls.Occupants, OccupantDTO{EID: eid, Slot: slot})
		}
		ls.Remaining = lane.Capacity - len(ls.Occupants)
		dto.Lanes = append(dto.Lanes, ls)
	}
	return dto
}

// SetDay selects the date and shift type, rebuilding the derived day.
// PUT /api/board/day
func (h *Handler) SetDay(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}
	h.Session.SetDate(req.Date, schedule.ParseShiftType(req.Shift))
	if h.Metrics != nil {
		h.Metrics.RecordRebuild()
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, h.boardState())
}

// PlaceBadge places or moves one badge.
// POST /api/board/place
func (h *Handler) PlaceBadge(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Session.Place(req.EID, req.LaneID, req.Slot); err != nil {
		writeBoardError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation(string(board.AuditMove))
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, h.boardState())
}

// UnplaceBadge returns a badge to unassigned.
// POST /api/board/unplace
func (h *Handler) UnplaceBadge(w http.ResponseWriter, r *http.Request) {
	var req EIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Session.Unplace(req.EID); err != nil {
		writeBoardError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation(string(board.AuditMove))
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, h.boardState())
}

// TogglePresence flips a badge between present and absent.
// POST /api/board/presence
func (h *Handler) TogglePresence(w http.ResponseWriter, r *http.Request) {
	var req EIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Session.TogglePresence(req.EID); err != nil {
		writeBoardError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation(string(board.AuditFlip))
	}
	h.refreshGauges()
	badge, _ := h.Session.Badge(req.EID)
	writeJSON(w, http.StatusOK, badge)
}

// ToggleBreak flips a badge's break tag.
// POST /api/board/break
func (h *Handler) ToggleBreak(w http.ResponseWriter, r *http.Request) {
	var req EIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Session.ToggleBreak(req.EID); err != nil {
		writeBoardError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation(string(board.AuditBreakToggle))
	}
	badge, _ := h.Session.Badge(req.EID)
	writeJSON(w, http.StatusOK, badge)
}

// SearchBadges finds badges by eid or name fragment.
// GET /api/board/search?q=
func (h *Handler) SearchBadges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.Search(q))
}

// =============================================================================
// AUTO-ASSIGN
// =============================================================================

func (h *Handler) assignOptions(req AssignRequest) board.AssignOptions {
	opts := h.AssignDefaults
	if req.TargetStations > 0 {
		opts.TargetStations = req.TargetStations
	}
	if req.Fairness != nil {
		opts.Fairness = *req.Fairness
	}
	if req.CriticalFirst != nil {
		opts.CriticalFirst = *req.CriticalFirst
	}
	opts.Seed = req.Seed
	return opts
}

// PreviewAssign proposes moves without committing them.
// POST /api/assign/preview
func (h *Handler) PreviewAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	moves := h.Session.PreviewAssign(h.assignOptions(req))
	writeJSON(w, http.StatusOK, AssignPreviewResponse{Moves: moves})
}

// ApplyAssign commits a previewed move list. Moves that no longer fit are
// skipped, not failed.
// POST /api/assign/apply
func (h *Handler) ApplyAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignPreviewResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	applied := h.Session.ApplyAssign(req.Moves)
	if h.Metrics != nil {
		h.Metrics.RecordMutation(string(board.AuditMove))
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, AssignApplyResponse{Applied: applied, Total: len(req.Moves)})
}

// =============================================================================
// QUARTER ROTATION
// =============================================================================

// GetRotation reports the current quarter and any staged rotation.
// GET /api/rotation
func (h *Handler) GetRotation(w http.ResponseWriter, r *http.Request) {
	dto := RotationStatusDTO{Quarter: h.Session.Quarter(), Labels: h.QuarterLabels}
	if pending, ok := h.Session.PendingRotation(); ok {
		dto.Pending = pending
	}
	writeJSON(w, http.StatusOK, dto)
}

// RequestRotation stages a rotation toward the named quarter.
// POST /api/rotation/request
func (h *Handler) RequestRotation(w http.ResponseWriter, r *http.Request) {
	var req RotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required", nil)
		return
	}
	if err := h.Session.RequestRotation(req.To); err != nil {
		writeBoardError(w, err)
		return
	}
	h.GetRotation(w, r)
}

// ConfirmRotation exports the outgoing quarter, archives it, resets the
// board and switches the label.
// POST /api/rotation/confirm
func (h *Handler) ConfirmRotation(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.ConfirmRotation()
	if err != nil {
		writeBoardError(w, err)
		return
	}
	h.refreshGauges()
	writeJSON(w, http.StatusOK, snap)
}

// DeclineRotation drops the staged rotation, leaving the board untouched.
// POST /api/rotation/decline
func (h *Handler) DeclineRotation(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Session.DeclineRotation(); err != nil {
		writeBoardError(w, err)
		return
	}
	h.GetRotation(w, r)
}

// ListSnapshots lists archived quarters.
// GET /api/rotation/snapshots
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.Hist == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	quarters, err := h.Hist.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}
	if quarters == nil {
		quarters = []string{}
	}
	writeJSON(w, http.StatusOK, quarters)
}

// GetSnapshotCSV streams one archived quarter as CSV.
// GET /api/rotation/snapshots/{quarter}
func (h *Handler) GetSnapshotCSV(w http.ResponseWriter, r *http.Request) {
	quarter := chi.URLParam(r, "quarter")
	if h.Hist == nil {
		writeError(w, http.StatusNotFound, "No archive configured", nil)
		return
	}
	snap, ok, err := h.Hist.GetSnapshot(r.Context(), quarter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No archive for quarter %q", quarter), nil)
		return
	}
	writeCSV(w, fmt.Sprintf("rotation-%s.csv", quarter), func(wr http.ResponseWriter) error {
		return board.WriteSnapshotCSV(wr, snap)
	})
}

// =============================================================================
// AUDIT AND EXPORT
// =============================================================================

// GetAudit returns the retained trail, newest first.
// GET /api/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	entries := h.Session.AuditRecent()
	if entries == nil {
		entries = []board.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExportAuditCSV streams the retained trail oldest-first as CSV.
// GET /api/audit/export
func (h *Handler) ExportAuditCSV(w http.ResponseWriter, r *http.Request) {
	entries := h.Session.AuditEntries()
	writeCSV(w, "audit.csv", func(wr http.ResponseWriter) error {
		return board.WriteAuditCSV(wr, entries)
	})
}

// ExportBoardCSV streams the current placements as CSV without rotating.
// GET /api/export/board
func (h *Handler) ExportBoardCSV(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	writeCSV(w, fmt.Sprintf("board-%s.csv", snap.Quarter), func(wr http.ResponseWriter) error {
		return board.WriteSnapshotCSV(wr, snap)
	})
}

// Health is the liveness probe.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeBoardError maps domain sentinels onto HTTP statuses.
func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrUnknownBadge), errors.Is(err, board.ErrUnknownLane):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, board.ErrLaneFull), errors.Is(err, board.ErrRotationPending):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, board.ErrNoRotationPending):
		writeError(w, http.StatusBadRequest, "No rotation pending", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeCSV(w http.ResponseWriter, filename string, render func(http.ResponseWriter) error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := render(w); err != nil {
		// Headers are gone; best effort is to stop writing.
		return
	}
}
