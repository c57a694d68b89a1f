// Package main runs the launchpad indexer: it consumes decoded on-chain
// events over WebSocket, maintains token economics, candles and the
// reputation ledger, and serves the read API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"launchpad-indexer/internal/api"
	"launchpad-indexer/internal/candles"
	"launchpad-indexer/internal/consumer"
	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/economics"
	"launchpad-indexer/internal/ledger"
	"launchpad-indexer/internal/storage"
	chstore "launchpad-indexer/internal/storage/clickhouse"
	"launchpad-indexer/internal/storage/memory"
	"launchpad-indexer/internal/storage/migrations"
	pgstore "launchpad-indexer/internal/storage/postgres"
	"launchpad-indexer/internal/stream"
)

const shutdownGrace = 30 * time.Second

// allStores holds every storage implementation the indexer wires together.
type allStores struct {
	deploys      storage.TokenDeployStore
	launches     storage.TokenLaunchStore
	metadata     storage.TokenMetadataStore
	transactions storage.TokenTransactionStore
	shareholders storage.ShareholderStore
	candles      storage.CandlestickStore
	contracts    storage.ContractStateStore
	epochs       storage.EpochStateStore
	profiles     storage.UserProfileStore
	userEpochs   storage.UserEpochStateStore
	processed    storage.ProcessedEventStore
}

func main() {
	// Load .env if present; system env vars win.
	_ = godotenv.Load()

	wsEndpoint := flag.String("ws-endpoint", os.Getenv("WS_ENDPOINT"), "Event stream WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "Read API listen address")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	workers := flag.Int("workers", envIntOr("CONSUMER_WORKERS", 8), "Consumer worker count")
	sweepSpec := flag.String("candle-sweep", envOr("CANDLE_SWEEP", "@every 10m"), "Cron spec for the candle rebuild sweep")
	sweepWindow := flag.Duration("candle-sweep-window", time.Hour, "Activity window for the candle sweep")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("create stores", zap.Error(err))
	}
	defer cleanup()

	econ := economics.NewUpdater(stores.deploys, stores.launches, stores.metadata,
		stores.transactions, stores.shareholders, logger)
	led := ledger.NewLedger(stores.contracts, stores.epochs, stores.profiles,
		stores.userEpochs, logger)
	agg := candles.NewAggregator(stores.transactions, stores.candles, logger)
	cons := consumer.New(consumer.Config{Workers: *workers}, stores.processed,
		econ, led, agg, logger)
	source := stream.NewSource(*wsEndpoint, stream.DefaultSourceConfig(), logger)

	// Periodic sweep catches tokens whose per-trade rebuild was dropped.
	sweeper := cron.New()
	_, err = sweeper.AddFunc(*sweepSpec, func() {
		since := time.Now().Add(-*sweepWindow).UnixMilli()
		if err := agg.RebuildActive(ctx, since); err != nil {
			logger.Warn("candle sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("invalid candle sweep spec", zap.String("spec", *sweepSpec), zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(api.Stores{
		Deploys:      stores.deploys,
		Launches:     stores.launches,
		Metadata:     stores.metadata,
		Transactions: stores.transactions,
		Shareholders: stores.shareholders,
		Candles:      stores.candles,
	}, logger)
	srv := &http.Server{Addr: *httpAddr, Handler: router}

	go func() {
		logger.Info("read API listening", zap.String("addr", *httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	// Stream feeds the consumer; the consumer drains when the source closes
	// the channel on cancellation.
	events := make(chan domain.Event, 256)
	go source.Run(ctx, events)

	done := make(chan struct{})
	go func() {
		cons.Run(ctx, events)
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Warn("consumer did not drain before deadline")
	}
	logger.Info("shutdown complete")
}

// createStores builds the storage layer and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		deploys := memory.NewTokenDeployStore()
		launches := memory.NewTokenLaunchStore()
		shareholders := memory.NewShareholderStore()
		stores := &allStores{
			deploys:      deploys,
			launches:     launches,
			metadata:     memory.NewTokenMetadataStore(deploys, launches),
			transactions: memory.NewTokenTransactionStore(launches, shareholders),
			shareholders: shareholders,
			candles:      memory.NewCandlestickStore(),
			contracts:    memory.NewContractStateStore(),
			epochs:       memory.NewEpochStateStore(),
			profiles:     memory.NewUserProfileStore(),
			userEpochs:   memory.NewUserEpochStateStore(),
			processed:    memory.NewProcessedEventStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
	}

	stores := &allStores{
		deploys:      pgstore.NewTokenDeployStore(pool),
		launches:     pgstore.NewTokenLaunchStore(pool),
		metadata:     pgstore.NewTokenMetadataStore(pool),
		transactions: pgstore.NewTokenTransactionStore(pool),
		shareholders: pgstore.NewShareholderStore(pool),
		candles:      chstore.NewCandlestickStore(chConn),
		contracts:    pgstore.NewContractStateStore(pool),
		epochs:       pgstore.NewEpochStateStore(pool),
		profiles:     pgstore.NewUserProfileStore(pool),
		userEpochs:   pgstore.NewUserEpochStateStore(pool),
		processed:    pgstore.NewProcessedEventStore(pool),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
