package collectors

import (
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/fetch"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

// Registry holds one collector per registered source. It implements
// domain.SourceLookup.
type Registry struct {
	ids  []string
	byID map[string]*Collector
}

// NewRegistry builds a collector for every descriptor in reg, all sharing fetcher.
func NewRegistry(reg *sources.Registry, fetcher fetch.Fetcher, log *logger.Logger) *Registry {
	r := &Registry{byID: make(map[string]*Collector)}
	for _, d := range reg.All() {
		r.ids = append(r.ids, d.ID)
		r.byID[d.ID] = NewCollector(d, fetcher, log)
	}
	return r
}

func (r *Registry) Lookup(sourceID string) (domain.SourceAdapter, bool) {
	c, ok := r.byID[sourceID]
	if !ok {
		return nil, false
	}
	return c, true
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Descriptors returns the source metadata in registration order.
func (r *Registry) Descriptors() []sources.Descriptor {
	out := make([]sources.Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id].source)
	}
	return out
}
