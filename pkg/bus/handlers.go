package bus

import (
	"context"

	"github.com/altrega/paperbroker/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type SnapshotEventHandler EventHandler[common.MarketSnapshot]
type IntentEventHandler EventHandler[common.TradeIntent]
type TradeExecutedEventHandler EventHandler[common.TradeExecuted]
type TradeRejectedEventHandler EventHandler[common.TradeRejected]
type EquityEventHandler EventHandler[common.Equity]
type BalanceEventHandler EventHandler[common.Balance]
type PositionOpenEventHandler EventHandler[common.PositionUpdate]
type PositionCloseEventHandler EventHandler[common.PositionUpdate]
type PositionUpdateEventHandler EventHandler[common.PositionUpdate]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
