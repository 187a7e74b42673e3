package cache

import (
	"context"
	"sync"
	"time"

	"webscout/internal/domain"
)

const defaultMaxEntries = 100

type entry struct {
	results   []domain.SearchResult
	expiresAt time.Time
}

// Memory is a process-local TTL cache. Expired entries are dropped on read
// and swept lazily once the map grows past maxEntries.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Name() string { return "memory" }

// Get returns a copy of the cached list if present and unexpired.
func (m *Memory) Get(_ context.Context, key string) ([]domain.SearchResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return append([]domain.SearchResult(nil), e.results...), true
}

func (m *Memory) Set(_ context.Context, key string, results []domain.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[key] = entry{
		results:   append([]domain.SearchResult(nil), results...),
		expiresAt: now.Add(ttl),
	}

	if len(m.entries) <= m.maxEntries {
		return nil
	}
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	// Still full of live entries: drop the one closest to expiry.
	for len(m.entries) > m.maxEntries {
		var oldest string
		var at time.Time
		for k, e := range m.entries {
			if oldest == "" || e.expiresAt.Before(at) {
				oldest, at = k, e.expiresAt
			}
		}
		delete(m.entries, oldest)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
