// Package collectors turns source descriptors into adapters that run one
// search against one source.
package collectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/fetch"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

// Collector is the adapter for one source.
type Collector struct {
	source  sources.Descriptor
	fetcher fetch.Fetcher
	log     *logger.Logger
}

func NewCollector(source sources.Descriptor, fetcher fetch.Fetcher, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Discard()
	}
	return &Collector{source: source, fetcher: fetcher, log: log}
}

func (c *Collector) Source() sources.Descriptor { return c.source }

// FetchListings performs exactly one request for q and extracts at most
// domain.MaxListingsPerSearch listings from the answer.
func (c *Collector) FetchListings(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	target := c.source.SearchURL(q)
	start := time.Now()

	resp, err := c.fetcher.Fetch(ctx, target, nil)
	if err != nil {
		return nil, domain.FetchError(fmt.Sprintf("request to %s failed", c.source.ID), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.FetchError(fmt.Sprintf("HTTP Error: %d", resp.StatusCode), nil)
	}
	if len(resp.Body) == 0 {
		return nil, domain.FetchError("empty response body", nil)
	}
	c.log.Debugf("[%s] fetched %s (%d bytes) in %s", c.source.ID, target, len(resp.Body), time.Since(start))

	listings, errs := c.source.Chain.Run(extract.Input{Body: resp.Body, Query: q})
	for _, e := range errs {
		c.log.Debugf("[%s] %v", c.source.ID, e)
	}
	c.log.Debugf("[%s] extracted %d listings", c.source.ID, len(listings))
	return listings, nil
}
