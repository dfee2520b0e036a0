// Package sources holds the static description of every supported listings
// provider: where to send a query and how to read the answer.
package sources

import (
	"net/url"
	"strings"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

// Descriptor is the read-only metadata of one source.
type Descriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Country     string `json:"country"`
	Currency    string `json:"currency"`
	BaseURL     string `json:"base_url"`

	// SearchURL encodes a query into the source's search address.
	SearchURL func(q domain.Query) string `json:"-"`
	Chain     extract.Chain               `json:"-"`
}

// Override adjusts a built-in source from configuration.
type Override struct {
	BaseURL     string `yaml:"base_url"`
	DisplayName string `yaml:"display_name"`
	Disabled    bool   `yaml:"disabled"`
}

type builtin struct {
	id    string
	base  string
	build func(base string) Descriptor
}

// builtins in presentation order.
var builtins = []builtin{
	{"finn", "https://www.finn.no", finn},
	{"auto24", "https://www.auto24.ee", auto24},
	{"ss", "https://www.ss.lv", ss},
	{"autoplius", "https://lv.m.autoplius.lt", autoplius},
	{"autoscout24", "https://www.autoscout24.com", autoscout24},
	{"mobile", "https://suchen.mobile.de", mobile},
}

// Registry maps source ids to descriptors. It is built once and only read afterwards.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// Load builds the registry from the built-in table and per-source overrides.
func Load(overrides map[string]Override) *Registry {
	r := &Registry{byID: make(map[string]Descriptor)}
	for _, b := range builtins {
		o := overrides[b.id]
		if o.Disabled {
			continue
		}
		base := b.base
		if o.BaseURL != "" {
			base = strings.TrimRight(o.BaseURL, "/")
		}
		d := b.build(base)
		if o.DisplayName != "" {
			d.DisplayName = o.DisplayName
		}
		r.Register(d)
	}
	return r
}

// Register adds or replaces a descriptor. Adding a source is a registration,
// not a new code path.
func (r *Registry) Register(d Descriptor) {
	if _, exists := r.byID[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.byID[d.ID] = d
}

func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// encodedText is the percent-encoded free-text query.
func encodedText(q domain.Query) string {
	return url.QueryEscape(q.Text())
}

// withParam appends name=value to u when value is set.
func withParam(u, name, value string) string {
	if value == "" {
		return u
	}
	sep := "&"
	if !strings.Contains(u, "?") {
		sep = "?"
	}
	return u + sep + name + "=" + url.QueryEscape(value)
}

// underMaxPrice keeps tree listings whose displayed price does not exceed the
// ceiling, for sources whose search URL has no price parameter.
func underMaxPrice(l domain.Listing, q domain.Query) bool {
	if !q.HasMaxPrice() {
		return true
	}
	amount, ok := normalize.ParseAmount(l.PriceDisplay)
	return !ok || amount <= q.MaxPrice
}
