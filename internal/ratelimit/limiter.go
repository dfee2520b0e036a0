// Package ratelimit implements a per-client sliding-window request ceiling.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultPerMinute = 60
	Window           = time.Minute
	// Retention bounds how long request records are kept at all.
	Retention = time.Hour
)

// Limiter answers whether a client may make another request and remembers the
// requests it made. Admit never records.
type Limiter interface {
	Admit(ctx context.Context, client string) (bool, error)
	Record(ctx context.Context, client string) error
}
