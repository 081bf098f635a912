package cache

import (
	"context"
	"sync"
	"time"

	"atsscore/internal/types"
)

type memoryEntry struct {
	report    *types.ATSReport
	expiresAt time.Time
}

// Memory is an in-process cache with per-entry expiry. Expired entries are
// dropped lazily on access and on Set.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*types.ATSReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.report, true, nil
}

func (m *Memory) Set(_ context.Context, key string, report *types.ATSReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{report: report, expiresAt: now.Add(m.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
