// Package services holds the search orchestration: rate limiting, caching,
// dispatch to the source adapters and telemetry, in that order.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ps-vitor/car-comparator/internal/cache"
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/ratelimit"
	"github.com/ps-vitor/car-comparator/internal/telemetry"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

const DefaultWorkers = 4

type Options struct {
	ResultTTL  time.Duration
	FailureTTL time.Duration
	// CacheFailures stores fetch failures for FailureTTL.
	CacheFailures bool
	// CountDenied records denied attempts against the client's window too.
	CountDenied bool
	// RecordCacheHits writes a telemetry entry for searches served from cache.
	RecordCacheHits bool
	Workers         int
}

// SearchService runs searches. Every call returns an envelope; errors never
// escape as Go errors.
type SearchService struct {
	sources   domain.SourceLookup
	cache     *cache.Cache
	limiter   ratelimit.Limiter
	telemetry telemetry.Recorder
	log       *logger.Logger
	opts      Options

	now   func() time.Time
	newID func() string
}

func NewSearchService(sources domain.SourceLookup, c *cache.Cache, limiter ratelimit.Limiter, rec telemetry.Recorder, log *logger.Logger, opts Options) *SearchService {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = cache.DefaultTTL
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = cache.DefaultFailureTTL
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if log == nil {
		log = logger.Discard()
	}
	if c == nil {
		c = cache.New(nil, false)
	}
	if limiter == nil {
		limiter = ratelimit.NewMemory(ratelimit.DefaultPerMinute)
	}
	if rec == nil {
		rec = telemetry.Multi{}
	}
	return &SearchService{
		sources:   sources,
		cache:     c,
		limiter:   limiter,
		telemetry: rec,
		log:       log,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Sources lists the supported source ids.
func (s *SearchService) Sources() []string { return s.sources.IDs() }

// Search runs q for client. Only the fetch is bound to ctx; store writes
// complete even if the caller goes away.
func (s *SearchService) Search(ctx context.Context, client string, q domain.Query) domain.Response {
	text := q.Text()
	adapter, ok := s.sources.Lookup(q.SourceID)
	if !ok {
		return domain.Failed(q.SourceID, text, domain.UnsupportedSourceError(q.SourceID))
	}
	storeCtx := context.WithoutCancel(ctx)

	if !s.admit(storeCtx, client) {
		s.log.Warnf("rate limit exceeded for %s on %s", client, q.SourceID)
		return domain.Failed(q.SourceID, text, domain.RateLimitedError())
	}

	key := cache.Key(q)
	payload, hit, err := s.cache.Get(storeCtx, key)
	if err != nil {
		s.log.Errorf("cache read %s: %v", key, err)
	}
	if hit {
		s.log.Infof("cache hit site=%s brand=%q model=%q key=%s", q.SourceID, q.Brand, q.Model, key)
		if s.opts.RecordCacheHits {
			s.record(storeCtx, client, q, len(payload.Listings), 0, true, payload.Error)
		}
		if payload.Failed() {
			resp := domain.Failed(q.SourceID, text, domain.FetchError(payload.Error, nil))
			resp.Cached = true
			return resp
		}
		return domain.Succeeded(q.SourceID, text, payload.Listings, true)
	}

	start := s.now()
	listings, err := adapter.FetchListings(ctx, q)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.log.Errorf("search failed site=%s brand=%q model=%q: %v", q.SourceID, q.Brand, q.Model, err)
		if s.opts.CacheFailures && domain.KindOf(err) == domain.KindFetch {
			s.store(storeCtx, key, cache.Payload{Error: err.Error()}, s.opts.FailureTTL)
		}
		s.record(storeCtx, client, q, 0, elapsed, false, err.Error())
		return domain.Failed(q.SourceID, text, err)
	}

	s.store(storeCtx, key, cache.Payload{Listings: listings}, s.opts.ResultTTL)
	s.record(storeCtx, client, q, len(listings), elapsed, false, "")
	return domain.Succeeded(q.SourceID, text, listings, false)
}

// SearchAll runs the same brand/model/price against several sources on the
// worker pool. An empty sourceIDs means every registered source. Responses
// keep the requested order.
func (s *SearchService) SearchAll(ctx context.Context, client, brand, model string, maxPrice float64, sourceIDs []string) domain.BatchResponse {
	ids := dedupe(sourceIDs)
	if len(ids) == 0 {
		ids = s.sources.IDs()
	}
	batch := domain.BatchResponse{
		Query:     strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(model)),
		Responses: make([]domain.Response, len(ids)),
	}

	pool := newWorkerPool(s.opts.Workers)
	for i, id := range ids {
		i, id := i, id
		pool.Submit(func() {
			q, err := domain.NewQuery(id, brand, model, maxPrice)
			if err != nil {
				batch.Responses[i] = domain.Failed(id, batch.Query, err)
				return
			}
			batch.Responses[i] = s.Search(ctx, client, q)
		})
	}
	pool.Wait()

	for _, r := range batch.Responses {
		if r.Success {
			batch.Success = true
			break
		}
	}
	return batch
}

// admit consults the limiter and records the attempt. A failing limiter store
// admits the request.
func (s *SearchService) admit(ctx context.Context, client string) bool {
	ok, err := s.limiter.Admit(ctx, client)
	if err != nil {
		s.log.Errorf("rate limiter unavailable, admitting %s: %v", client, err)
		ok = true
	}
	if !ok && !s.opts.CountDenied {
		return false
	}
	if err := s.limiter.Record(ctx, client); err != nil {
		s.log.Errorf("rate limiter record for %s: %v", client, err)
	}
	return ok
}

func (s *SearchService) store(ctx context.Context, key string, p cache.Payload, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, p, ttl); err != nil {
		s.log.Errorf("cache write %s: %v", key, err)
	}
}

func (s *SearchService) record(ctx context.Context, client string, q domain.Query, count int, elapsed time.Duration, cacheHit bool, errText string) {
	entry := domain.SearchTelemetryEntry{
		ID:             s.newID(),
		ClientIdentity: client,
		Brand:          q.Brand,
		Model:          q.Model,
		MaxPrice:       q.MaxPrice,
		Sources:        []string{q.SourceID},
		ResultCount:    count,
		DurationMs:     elapsed.Milliseconds(),
		CacheHit:       cacheHit,
		Error:          errText,
		Timestamp:      s.now(),
	}
	if err := s.telemetry.Record(ctx, entry); err != nil {
		s.log.Errorf("telemetry write: %v", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		k := strings.ToLower(strings.TrimSpace(id))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
