package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/cmd/paperbroker"
	"github.com/altrega/paperbroker/cmd/paperbroker/advisor"
	"github.com/altrega/paperbroker/pkg/backtest"
	"github.com/altrega/paperbroker/pkg/bus"
	"github.com/altrega/paperbroker/pkg/data/duckdb"
	"github.com/altrega/paperbroker/pkg/data/mapper"
	"github.com/altrega/paperbroker/pkg/execution"
	"github.com/altrega/paperbroker/pkg/middleware"
	"github.com/altrega/paperbroker/pkg/orderqueue"
	"github.com/altrega/paperbroker/pkg/portfolio"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info(fmt.Sprintf("paperbroker %s", paperbroker.Version))
	defer logger.Info("done")

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("unable to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Fatal("error opening snapshot source", zap.Error(err))
	}
	defer closeSource()

	// Create
	monitor := middleware.NewMonitor(MonitorFlags)
	telemetry := middleware.NewTelemetry(logger)

	router := bus.NewRouter(cfg.RouterEventCapacity)

	simulator := execution.NewSimulator(execution.DefaultConfig(), logger, execution.WithSeed(cfg.Seed))
	pf := portfolio.NewPortfolio(fixed.MustParse(cfg.InitialBalance), portfolio.NewSimulatedFillModel(simulator), logger)
	queue := orderqueue.NewQueue(simulator, logger)
	audit := backtest.NewAudit(cfg.AuditInterval)

	strategy := advisor.NewStrategy(logger,
		fixed.MustParse(cfg.BuyBelow),
		fixed.MustParse(cfg.SellAbove),
		fixed.MustParse(cfg.SizePct))

	executor := backtest.NewExecutor(logger, router, source, strategy.Intents, pf, queue, audit)

	// Initialize
	router.OnSnapshot = telemetry.WithSnapshot(monitor.WithSnapshot(strategy.OnSnapshot))
	router.OnTradeExecuted = telemetry.WithTradeExecuted(monitor.WithTradeExecuted(strategy.OnTradeExecuted))
	router.OnTradeRejected = telemetry.WithTradeRejected(monitor.WithTradeRejected(strategy.OnTradeRejected))
	router.OnEquity = telemetry.WithEquity(monitor.WithEquity(strategy.OnEquity))

	// Execute the replay
	done := router.ExecLoop(ctx, func() error {
		return executor.Feed(ctx)
	})
	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()

	if err := <-done; err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, mapper.ErrEof) && !errors.Is(err, duckdb.ErrEof) {
			logger.Error("error during replay", zap.Error(err))
			return
		}
	}

	audit.GenerateReport().Print(logger)
}

func openSource(ctx context.Context, cfg Config) (backtest.SnapshotSource, func(), error) {
	if cfg.DataBackend == "duckdb" {
		reader := duckdb.NewReader(cfg.DataSource)
		if err := reader.Connect(); err != nil {
			return nil, nil, err
		}
		defer reader.Close()

		source, err := duckdb.NewSource(ctx, reader, cfg.MarketId, cfg.TokenId, time.Unix(0, 0), time.Now())
		if err != nil {
			return nil, nil, err
		}
		return source, func() {}, nil
	}

	reader := mapper.NewReader[mapper.BinarySnapshot](cfg.DataSource)
	if err := reader.Open(); err != nil {
		return nil, nil, err
	}
	return mapper.NewSource(reader, cfg.MarketId, cfg.TokenId), func() { reader.Close() }, nil
}
