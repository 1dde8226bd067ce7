// Package store provides in-memory implementations of the ledger
// storage interfaces, for tests and development.
package store

import (
	"context"
	"sync"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  []ledger.Entry
	nextName ledger.EntryName
	series   map[string]ledger.Series
	names    map[ledger.SchemaName]map[string]bool
	audit    []ledger.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		nextName: 1,
		series:   make(map[string]ledger.Series),
		names:    make(map[ledger.SchemaName]map[string]bool),
	}
}

// RegisterName records that a document or account name exists, so the
// checker can answer Exists. Tests use this to stand in for the full
// document store.
func (m *Memory) RegisterName(schema ledger.SchemaName, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerLocked(schema, name)
}

func (m *Memory) registerLocked(schema ledger.SchemaName, name string) {
	if m.names[schema] == nil {
		m.names[schema] = make(map[string]bool)
	}
	m.names[schema][name] = true
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) AppendEntries(_ context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(entries), nil
}

func (m *Memory) appendLocked(entries []ledger.Entry) []ledger.Entry {
	created := make([]ledger.Entry, len(entries))
	for i, e := range entries {
		e.Name = m.nextName
		m.nextName++
		m.entries = append(m.entries, e)
		created[i] = e
	}
	return created
}

func (m *Memory) EntriesByReference(_ context.Context, refType ledger.SchemaName, refName string) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Entry
	for _, e := range m.entries {
		if e.ReferenceType == refType && e.ReferenceName == refName {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) MarkReverted(_ context.Context, names []ledger.EntryName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markRevertedLocked(names)
}

func (m *Memory) markRevertedLocked(names []ledger.EntryName) error {
	want := make(map[ledger.EntryName]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for i := range m.entries {
		if want[m.entries[i].Name] {
			m.entries[i].Reverted = true
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn with snapshot-rollback semantics: if fn fails,
// every entry write it made is discarded.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.EntryStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := append([]ledger.Entry(nil), m.entries...)
	snapshotNext := m.nextName

	if err := fn(&txView{parent: m}); err != nil {
		m.entries = snapshot
		m.nextName = snapshotNext
		return err
	}
	return nil
}

// txView writes directly against the parent, which already holds the
// lock for the duration of WithTx.
type txView struct {
	parent *Memory
}

func (tv *txView) AppendEntries(_ context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	return tv.parent.appendLocked(entries), nil
}

func (tv *txView) EntriesByReference(_ context.Context, refType ledger.SchemaName, refName string) ([]ledger.Entry, error) {
	var result []ledger.Entry
	for _, e := range tv.parent.entries {
		if e.ReferenceType == refType && e.ReferenceName == refName {
			result = append(result, e)
		}
	}
	return result, nil
}

func (tv *txView) MarkReverted(_ context.Context, names []ledger.EntryName) error {
	return tv.parent.markRevertedLocked(names)
}

// =============================================================================
// SERIES STORE
// =============================================================================

func (m *Memory) GetSeries(_ context.Context, name string) (*ledger.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.series[name]
	if !ok {
		return nil, nil
	}
	if s.Current != nil {
		current := *s.Current
		s.Current = &current
	}
	return &s, nil
}

func (m *Memory) PutSeries(_ context.Context, s ledger.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.Name] = s
	return nil
}

// =============================================================================
// DOCUMENT CHECKER
// =============================================================================

func (m *Memory) Exists(_ context.Context, schema ledger.SchemaName, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[schema][name], nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry ledger.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, schema ledger.SchemaName, name string) ([]ledger.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.AuditEntry
	for _, e := range m.audit {
		if (schema == "" || e.Schema == schema) && (name == "" || e.Name == name) {
			result = append(result, e)
		}
	}
	return result, nil
}
