package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ps-vitor/car-comparator/pkg/logger"
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryBackend keeps entries in process. Expired entries are invisible to Get
// and are removed by Cleanup.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]entry), now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{value: value, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Cleanup drops expired entries and returns how many were removed.
func (m *MemoryBackend) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RunCleanup sweeps every interval until ctx is done.
func (m *MemoryBackend) RunCleanup(ctx context.Context, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				log.Debugf("cache cleanup removed %d expired entries", n)
			}
		}
	}
}
