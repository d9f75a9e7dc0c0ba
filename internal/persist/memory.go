package persist

import (
	"context"
	"sync"
)

// MemoryStore keeps rows in process memory. Saved rows are copied so callers
// cannot mutate stored state. SetFailSaves makes every Save return the given
// error.
type MemoryStore struct {
	mu        sync.Mutex
	rows      map[string]ProgressionRow
	ledger    []LedgerEntry
	saves     int
	failSaves error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]ProgressionRow)}
}

func (m *MemoryStore) Load(_ context.Context, characterID string) (*ProgressionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[characterID]
	if !ok {
		return nil, nil
	}
	row.UnlockedSkills = append([]string(nil), row.UnlockedSkills...)
	if err := row.Verify(); err != nil {
		return nil, err
	}
	return &row, nil
}

func (m *MemoryStore) Save(_ context.Context, row *ProgressionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves != nil {
		return m.failSaves
	}
	row.Seal()
	cp := *row
	cp.UnlockedSkills = append([]string(nil), row.UnlockedSkills...)
	m.rows[row.CharacterID] = cp
	m.saves++
	return nil
}

func (m *MemoryStore) AppendLedger(_ context.Context, entries []LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, entries...)
	return nil
}

func (m *MemoryStore) LedgerEntries(_ context.Context, characterID string) ([]LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LedgerEntry
	for _, e := range m.ledger {
		if e.CharacterID == characterID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Saves reports how many Save calls succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetFailSaves swaps the injected save error under the store lock.
func (m *MemoryStore) SetFailSaves(err error) {
	m.mu.Lock()
	m.failSaves = err
	m.mu.Unlock()
}

// Tamper overwrites a stored field without resealing the row.
func (m *MemoryStore) Tamper(characterID string, fn func(*ProgressionRow)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[characterID]
	fn(&row)
	m.rows[characterID] = row
}

func (m *MemoryStore) Close() error { return nil }
