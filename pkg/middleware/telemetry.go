package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/bus"
	"github.com/altrega/paperbroker/pkg/common"
)

type Telemetry struct {
	logger *zap.Logger

	snapshotEventCounter       int64
	intentEventCounter         int64
	tradeEventCounter          int64
	tradeRejectedEventCounter  int64
	equityEventCounter         int64
	balanceEventCounter        int64
	positionOpenEventCounter   int64
	positionCloseEventCounter  int64
	positionUpdateEventCounter int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.MarketSnapshot) {
		t.snapshotEventCounter++
		handler(ctx, snapshot)
	}
}

func (t *Telemetry) WithIntent(handler bus.IntentEventHandler) bus.IntentEventHandler {
	return func(ctx context.Context, intent common.TradeIntent) {
		t.intentEventCounter++
		handler(ctx, intent)
	}
}

func (t *Telemetry) WithTradeExecuted(handler bus.TradeExecutedEventHandler) bus.TradeExecutedEventHandler {
	return func(ctx context.Context, trade common.TradeExecuted) {
		t.tradeEventCounter++
		handler(ctx, trade)
	}
}

func (t *Telemetry) WithTradeRejected(handler bus.TradeRejectedEventHandler) bus.TradeRejectedEventHandler {
	return func(ctx context.Context, rejection common.TradeRejected) {
		t.tradeRejectedEventCounter++
		handler(ctx, rejection)
	}
}

func (t *Telemetry) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		t.equityEventCounter++
		handler(ctx, equity)
	}
}

func (t *Telemetry) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		t.balanceEventCounter++
		handler(ctx, balance)
	}
}

func (t *Telemetry) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		t.positionOpenEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		t.positionCloseEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionUpdate(handler bus.PositionUpdateEventHandler) bus.PositionUpdateEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		t.positionUpdateEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("snapshot_events", t.snapshotEventCounter),
		zap.Int64("intent_events", t.intentEventCounter),
		zap.Int64("trade_events", t.tradeEventCounter),
		zap.Int64("trade_rejected_events", t.tradeRejectedEventCounter),
		zap.Int64("equity_events", t.equityEventCounter),
		zap.Int64("balance_events", t.balanceEventCounter),
		zap.Int64("position_open_events", t.positionOpenEventCounter),
		zap.Int64("position_close_events", t.positionCloseEventCounter),
		zap.Int64("position_update_events", t.positionUpdateEventCounter))
}
