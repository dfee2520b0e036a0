package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/ps-vitor/car-comparator/internal/cache"
	"github.com/ps-vitor/car-comparator/internal/ratelimit"
	"github.com/ps-vitor/car-comparator/internal/scraping/collectors"
	"github.com/ps-vitor/car-comparator/internal/scraping/fetch"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/internal/telemetry"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

// Toyota Corolla under 200000 NOK against a recorded finn results page, through
// the real collector, transport and memory stores.
func TestSearchFinnResultsPage(t *testing.T) {
	page, err := os.ReadFile("../scraping/collectors/testdata/finn_search.html")
	if err != nil {
		t.Fatal(err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if r.URL.Path != "/car/used/search.html" || q.Get("q") != "Toyota Corolla" || q.Get("price_to") != "200000" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}))
	defer srv.Close()

	reg := collectors.NewRegistry(
		sources.Load(map[string]sources.Override{"finn": {BaseURL: srv.URL}}),
		fetch.NewClient(fetch.Options{}),
		logger.Discard(),
	)
	rec := telemetry.NewMemory()
	svc := NewSearchService(reg, cache.New(cache.NewMemoryBackend(), true), ratelimit.NewMemory(ratelimit.DefaultPerMinute), rec, logger.Discard(), Options{})

	q := query(t, "finn", "Toyota", "Corolla", 200000)
	resp := svc.Search(context.Background(), "203.0.113.7", q)
	if !resp.Success || resp.Source != "finn" || resp.Query != "Toyota Corolla" || resp.Cached {
		t.Fatalf("envelope: got %+v", resp)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results: got %d, want 2", len(resp.Results))
	}
	for i, l := range resp.Results {
		if l.Title == "" || l.PriceDisplay == "" || l.SourceURL == "" {
			t.Errorf("result %d incomplete: %+v", i, l)
		}
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Source  string            `json:"source"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw.Source != "finn" || len(raw.Results) != 2 {
		t.Errorf("encoded: source %q, %d results", raw.Source, len(raw.Results))
	}

	again := svc.Search(context.Background(), "203.0.113.7", q)
	if !again.Cached || len(again.Results) != 2 {
		t.Errorf("repeat: cached %v, %d results", again.Cached, len(again.Results))
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("upstream hits: got %d, want 1", n)
	}

	entries := rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("telemetry: got %d entries, want 1", len(entries))
	}
	if e := entries[0]; e.ResultCount != 2 || e.MaxPrice != 200000 || e.CacheHit || e.Sources[0] != "finn" {
		t.Errorf("telemetry entry: got %+v", e)
	}
}
