package board

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// auditCap bounds the in-memory view; older entries fall off the front.
const auditCap = 300

// AuditLog is the append-only, capacity-capped record of board mutations.
// Entries also stream to the HistoryStore when one is attached, so the
// durable trail is not subject to the display cap.
type AuditLog struct {
	entries []AuditEntry
	hist    HistoryStore
	log     zerolog.Logger
}

func NewAuditLog(hist HistoryStore, log zerolog.Logger) *AuditLog {
	return &AuditLog{hist: hist, log: log}
}

// Append records one mutation.
func (a *AuditLog) Append(kind AuditKind, eid, from, to string) {
	e := AuditEntry{
		ID:   uuid.NewString(),
		TS:   time.Now(),
		Kind: kind,
		EID:  eid,
		From: from,
		To:   to,
	}
	a.entries = append(a.entries, e)
	if len(a.entries) > auditCap {
		a.entries = a.entries[len(a.entries)-auditCap:]
	}
	if a.hist != nil {
		if err := a.hist.AppendAudit(context.Background(), e); err != nil {
			a.log.Warn().Err(err).Str("eid", eid).Msg("audit entry not persisted")
		}
	}
}

// Entries returns the retained log oldest-first (export order).
func (a *AuditLog) Entries() []AuditEntry {
	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Recent returns the retained log newest-first (display order).
func (a *AuditLog) Recent() []AuditEntry {
	out := make([]AuditEntry, len(a.entries))
	for i, e := range a.entries {
		out[len(a.entries)-1-i] = e
	}
	return out
}

func (a *AuditLog) Len() int { return len(a.entries) }
