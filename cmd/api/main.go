package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/car-comparator/internal/api/handlers"
	"github.com/ps-vitor/car-comparator/internal/app"
	"github.com/ps-vitor/car-comparator/internal/config"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

func main() {
	log := logger.New("[car-api] ")

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}
	log.SetDebug(cfg.App.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Errorf("bootstrap: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	if mc := a.MemoryCache(); mc != nil && cfg.Cache.CleanupInterval > 0 {
		go mc.RunCleanup(ctx, cfg.Cache.CleanupInterval, log)
	}

	r := mux.NewRouter()
	handlers.NewAPIHandler(a.Service, a.Collectors.Descriptors(), log).RegisterRoutes(r)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("API listening on %s (%d sources)", server.Addr, len(a.Service.Sources()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
