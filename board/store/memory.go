// Package store provides the in-memory HistoryStore implementation, used by
// tests and by sessions configured without a database path.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pxt/board-engine/board"
)

// =============================================================================
// MEMORY STORE - in-memory HistoryStore (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	audit     []board.AuditEntry
	lastLanes map[string]string
	snapshots map[string]board.QuarterSnapshot
}

func NewMemory() *Memory {
	return &Memory{
		lastLanes: make(map[string]string),
		snapshots: make(map[string]board.QuarterSnapshot),
	}
}

// AppendAudit adds one entry. Append-only; the memory store keeps the full
// trail, the display cap lives in the session's AuditLog.
func (m *Memory) AppendAudit(_ context.Context, e board.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

// Audit returns the persisted trail, oldest first.
func (m *Memory) Audit() []board.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]board.AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

func (m *Memory) LastLanes(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.lastLanes))
	for k, v := range m.lastLanes {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SaveLastLanes(_ context.Context, lanes map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLanes = make(map[string]string, len(lanes))
	for k, v := range lanes {
		m.lastLanes[k] = v
	}
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, snap board.QuarterSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Quarter] = snap
	return nil
}

func (m *Memory) ListSnapshots(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.snapshots))
	for q := range m.snapshots {
		out = append(out, q)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) GetSnapshot(_ context.Context, quarter string) (board.QuarterSnapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[quarter]
	return snap, ok, nil
}

func (m *Memory) Close() error { return nil }
