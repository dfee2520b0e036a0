// Package extract turns a raw search-results page into listings. Each source
// runs an ordered chain of strategies over the same body and keeps the first
// non-empty result.
package extract

import (
	"github.com/ps-vitor/car-comparator/internal/domain"
)

// Input is what every strategy sees: the response body and the query that
// produced it.
type Input struct {
	Body  []byte
	Query domain.Query
}

// Strategy is one way of reading listings out of a page. A strategy that finds
// nothing returns an empty slice and a nil error; an error means the strategy
// found its data but could not decode it.
type Strategy interface {
	Name() string
	Extract(in Input) ([]domain.Listing, error)
}

// Chain runs strategies in order until one yields at least one listing.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) Chain {
	return Chain{strategies: strategies}
}

// Strategies lists the chain members in order.
func (c Chain) Strategies() []Strategy { return c.strategies }

// Run returns the first non-empty strategy result and the extraction errors
// met on the way. Zero listings with no error is a valid outcome.
func (c Chain) Run(in Input) ([]domain.Listing, []error) {
	var errs []error
	for _, s := range c.strategies {
		listings, err := s.Extract(in)
		if err != nil {
			errs = append(errs, domain.ExtractionError(s.Name(), err))
			continue
		}
		if len(listings) > 0 {
			return truncate(listings), errs
		}
	}
	return []domain.Listing{}, errs
}

func truncate(listings []domain.Listing) []domain.Listing {
	if len(listings) > domain.MaxListingsPerSearch {
		return listings[:domain.MaxListingsPerSearch]
	}
	return listings
}
