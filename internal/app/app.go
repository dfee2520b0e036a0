// Package app assembles the search service from configuration. Both binaries
// share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ps-vitor/car-comparator/internal/cache"
	"github.com/ps-vitor/car-comparator/internal/config"
	"github.com/ps-vitor/car-comparator/internal/ratelimit"
	"github.com/ps-vitor/car-comparator/internal/repositories"
	"github.com/ps-vitor/car-comparator/internal/scraping/collectors"
	"github.com/ps-vitor/car-comparator/internal/scraping/fetch"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/internal/services"
	"github.com/ps-vitor/car-comparator/internal/telemetry"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

type App struct {
	Service    *services.SearchService
	Collectors *collectors.Registry

	memoryCache *cache.MemoryBackend
	closers     []func() error
}

// Build connects every configured store. On error, whatever was opened is closed.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		log.Infof("connected to redis at %s", cfg.Redis.Addr)
	}

	var backend cache.Backend
	if cfg.Cache.Backend == "redis" {
		backend = cache.NewRedisBackend(rdb)
	} else {
		a.memoryCache = cache.NewMemoryBackend()
		backend = a.memoryCache
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.PerMinute)
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimit.PerMinute)
	}

	recorders, err := a.recorders(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewClient(fetch.Options{
		UserAgent:   cfg.Scraping.UserAgent,
		Timeout:     cfg.Scraping.Timeout,
		DialTimeout: cfg.Scraping.ConnectTimeout,
		VerifyTLS:   cfg.Scraping.VerifyTLS,
	})
	a.Collectors = collectors.NewRegistry(sources.Load(cfg.Scraping.Sources), fetcher, log)

	a.Service = services.NewSearchService(a.Collectors, cache.New(backend, cfg.Cache.Enabled), limiter, recorders, log, services.Options{
		ResultTTL:       cfg.Cache.TTL,
		FailureTTL:      cfg.Cache.FailureTTL,
		CacheFailures:   cfg.Cache.CacheFailures,
		CountDenied:     cfg.RateLimit.CountDenied,
		RecordCacheHits: cfg.Telemetry.RecordCacheHits,
		Workers:         cfg.Scraping.Workers,
	})
	ok = true
	return a, nil
}

func (a *App) recorders(ctx context.Context, cfg *config.Config, log *logger.Logger) (telemetry.Multi, error) {
	var out telemetry.Multi
	if cfg.HasSink("log") {
		out = append(out, telemetry.NewLog(log))
	}
	if cfg.HasSink("postgres") {
		pool, err := repositories.OpenPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		repo := repositories.NewSearchHistoryRepository(pool)
		if cfg.Database.AutoMigrate {
			if err := repo.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		out = append(out, repo)
		log.Info("search history stored in postgres")
	}
	if cfg.HasSink("kafka") {
		k := telemetry.NewKafka(cfg.Kafka.Broker, cfg.Kafka.Topic, log)
		a.closers = append(a.closers, k.Close)
		out = append(out, k)
		log.Infof("search history published to kafka topic %s", cfg.Kafka.Topic)
	}
	return out, nil
}

// MemoryCache is the in-process cache backend, nil when Redis backs the cache.
func (a *App) MemoryCache() *cache.MemoryBackend { return a.memoryCache }

// Close releases stores in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
