package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory keeps request timestamps per client in process.
type Memory struct {
	mu      sync.Mutex
	limit   int
	records map[string][]time.Time
	now     func() time.Time
}

func NewMemory(perMinute int) *Memory {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	return &Memory{limit: perMinute, records: make(map[string][]time.Time), now: time.Now}
}

// Admit reports whether fewer than the ceiling requests fall inside the last window.
func (m *Memory) Admit(_ context.Context, client string) (bool, error) {
	since := m.now().Add(-Window)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ts := range m.records[client] {
		if ts.After(since) {
			n++
		}
	}
	return n < m.limit, nil
}

// Record appends a request at the current time and drops the client's records
// older than Retention.
func (m *Memory) Record(_ context.Context, client string) error {
	now := m.now()
	cutoff := now.Add(-Retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[client][:0]
	for _, ts := range m.records[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	m.records[client] = append(kept, now)
	return nil
}
