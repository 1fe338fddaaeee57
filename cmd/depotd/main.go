// Command depotd serves the object-store access layer over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquastor/depot/internal/artifact"
	"github.com/aquastor/depot/internal/catalog"
	catmysql "github.com/aquastor/depot/internal/catalog/mysql"
	catpostgres "github.com/aquastor/depot/internal/catalog/postgres"
	"github.com/aquastor/depot/internal/config"
	"github.com/aquastor/depot/internal/depot"
	"github.com/aquastor/depot/internal/logger"
	"github.com/aquastor/depot/internal/objstore/minio"
	"github.com/aquastor/depot/internal/server"
)

func main() {
	configPath := flag.String("config", "depot.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(nil).Fatalf("loading config: %v", err)
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if !cfg.Store.Available() {
		log.Fatalf("object store credentials not configured, refusing to start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := minio.New(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("connecting to object store: %v", err)
	}
	defer store.Close()

	var cat catalog.Catalog
	switch cfg.Catalog.Driver {
	case catalog.DriverPostgres:
		cat, err = catpostgres.New(ctx, cfg.Catalog)
	case catalog.DriverMySQL:
		cat, err = catmysql.New(ctx, cfg.Catalog)
	default:
		log.Fatalf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
	if err != nil {
		log.Fatalf("connecting to catalog: %v", err)
	}
	defer cat.Close()

	d := depot.New(store, cfg.Store, log)
	resolver := artifact.NewResolver(d, cat, cfg.Store.BucketTemplate, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(resolver, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("depotd listening on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	log.Info("depotd stopped")
}
