// Package middleware provides handler decorators for event logging and
// telemetry, chained in front of the real handlers at wiring time.
package middleware

import (
	"context"
	"log/slog"

	"github.com/altrega/paperbroker/pkg/bus"
	"github.com/altrega/paperbroker/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorSnapshots
	MonitorIntents
	MonitorTrades
	MonitorTradeRejections
	MonitorEquity
	MonitorBalance
	MonitorPositionsOpened
	MonitorPositionsClosed
	MonitorPositionsUpdated
)

type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.MarketSnapshot) {
		if m.flags&MonitorSnapshots != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "snapshot", snapshot)
		}
		handler(ctx, snapshot)
	}
}

func (m *Monitor) WithIntent(handler bus.IntentEventHandler) bus.IntentEventHandler {
	return func(ctx context.Context, intent common.TradeIntent) {
		if m.flags&MonitorIntents != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "intent", intent)
		}
		handler(ctx, intent)
	}
}

func (m *Monitor) WithTradeExecuted(handler bus.TradeExecutedEventHandler) bus.TradeExecutedEventHandler {
	return func(ctx context.Context, trade common.TradeExecuted) {
		if m.flags&MonitorTrades != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "trade", trade)
		}
		handler(ctx, trade)
	}
}

func (m *Monitor) WithTradeRejected(handler bus.TradeRejectedEventHandler) bus.TradeRejectedEventHandler {
	return func(ctx context.Context, rejection common.TradeRejected) {
		if m.flags&MonitorTradeRejections != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "trade_rejected", rejection)
		}
		handler(ctx, rejection)
	}
}

func (m *Monitor) WithEquity(handler bus.EquityEventHandler) bus.EquityEventHandler {
	return func(ctx context.Context, equity common.Equity) {
		if m.flags&MonitorEquity != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "equity", equity)
		}
		handler(ctx, equity)
	}
}

func (m *Monitor) WithBalance(handler bus.BalanceEventHandler) bus.BalanceEventHandler {
	return func(ctx context.Context, balance common.Balance) {
		if m.flags&MonitorBalance != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "balance", balance)
		}
		handler(ctx, balance)
	}
}

func (m *Monitor) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		if m.flags&MonitorPositionsOpened != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "position_open", position)
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		if m.flags&MonitorPositionsClosed != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "position_closed", position)
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionUpdate(handler bus.PositionUpdateEventHandler) bus.PositionUpdateEventHandler {
	return func(ctx context.Context, position common.PositionUpdate) {
		if m.flags&MonitorPositionsUpdated != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "position_update", position)
		}
		handler(ctx, position)
	}
}
