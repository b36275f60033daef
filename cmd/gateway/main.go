package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/paygate/x402-gateway/catalog"
	"github.com/paygate/x402-gateway/config"
	"github.com/paygate/x402-gateway/facilitator"
	"github.com/paygate/x402-gateway/gateway"
	"github.com/paygate/x402-gateway/logger"
	"github.com/paygate/x402-gateway/metrics"
	"github.com/paygate/x402-gateway/server"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewZapLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error("catalog setup failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer cleanup()

	port := facilitator.New(cfg.Facilitator, log)
	if err := port.Init(ctx); err != nil {
		log.Error("payment backend init failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	gw := gateway.New(store, port,
		gateway.WithLogger(log),
		gateway.WithMetrics(metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)),
		gateway.WithMaxTimeout(cfg.MaxTimeoutSeconds),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(gw, port, store, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("gateway listening", map[string]any{"addr": cfg.ListenAddr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config, log logger.Logger) (catalog.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("using in-memory catalog", nil)
		return catalog.NewMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := catalog.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("using postgres catalog", nil)
	return store, pool.Close, nil
}
