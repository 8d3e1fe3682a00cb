package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/altrega/paperbroker/pkg/middleware"
)

const MonitorFlags = middleware.MonitorTrades | middleware.MonitorTradeRejections | middleware.MonitorPositionsOpened | middleware.MonitorPositionsClosed

type Config struct {
	// DataBackend selects where snapshots replay from: "mapper" reads a
	// packed binary file, "duckdb" reads a snapshot table.
	DataBackend    string `env:"PB_DATA_BACKEND" envDefault:"mapper"`
	DataSource     string `env:"PB_DATA_SOURCE" envDefault:"data/snapshots.bin"`
	MarketId       string `env:"PB_MARKET_ID" envDefault:"demo-market"`
	TokenId        string `env:"PB_TOKEN_ID" envDefault:"demo-token"`
	InitialBalance string `env:"PB_INITIAL_BALANCE" envDefault:"1000"`

	BuyBelow  string `env:"PB_BUY_BELOW" envDefault:"0.45"`
	SellAbove string `env:"PB_SELL_ABOVE" envDefault:"0.55"`
	SizePct   string `env:"PB_SIZE_PCT" envDefault:"0.05"`

	RouterEventCapacity int           `env:"PB_ROUTER_CAPACITY" envDefault:"1000"`
	AuditInterval       time.Duration `env:"PB_AUDIT_INTERVAL" envDefault:"1m"`
	Seed                int64         `env:"PB_SEED" envDefault:"42"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
