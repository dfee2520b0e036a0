// internal/domain/scraper.go
package domain

import "context"

// MaxListingsPerSearch caps the listings one source call may return.
const MaxListingsPerSearch = 10

// SourceAdapter fetches and extracts listings for one source. Implementations
// perform exactly one outbound request per call and never touch the cache or
// the rate limiter.
type SourceAdapter interface {
	FetchListings(ctx context.Context, q Query) ([]Listing, error)
}

// SourceLookup resolves a source id to its adapter.
type SourceLookup interface {
	Lookup(sourceID string) (SourceAdapter, bool)
	IDs() []string
}
