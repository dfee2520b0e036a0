// Package telemetry records one entry per completed search. Recording is best
// effort: callers log a failed write and move on.
package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

// Recorder appends a telemetry entry to some sink.
type Recorder interface {
	Record(ctx context.Context, e domain.SearchTelemetryEntry) error
}

// Multi fans an entry out to several recorders and joins their errors.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e domain.SearchTelemetryEntry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory keeps entries in process.
type Memory struct {
	mu      sync.Mutex
	entries []domain.SearchTelemetryEntry
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Record(_ context.Context, e domain.SearchTelemetryEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []domain.SearchTelemetryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SearchTelemetryEntry(nil), m.entries...)
}

// Log writes each entry as one info line.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log { return &Log{log: log} }

func (l *Log) Record(_ context.Context, e domain.SearchTelemetryEntry) error {
	outcome := "ok"
	if e.Error != "" {
		outcome = "error=" + e.Error
	}
	l.log.Infof("search client=%s sites=%s brand=%q model=%q results=%d duration=%dms cache_hit=%t %s",
		e.ClientIdentity, strings.Join(e.Sources, ","), e.Brand, e.Model, e.ResultCount, e.DurationMs, e.CacheHit, outcome)
	return nil
}
