// Package advisor holds the demo strategy used by the backtest binary.
package advisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/portfolio"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// Strategy buys when the mid price drops below the lower band and
// sells the whole position back when it crosses the upper band.
type Strategy struct {
	logger *zap.Logger

	buyBelow  fixed.Point
	sellAbove fixed.Point
	sizePct   fixed.Point
}

func NewStrategy(logger *zap.Logger, buyBelow, sellAbove, sizePct fixed.Point) *Strategy {
	return &Strategy{
		logger:    logger,
		buyBelow:  buyBelow,
		sellAbove: sellAbove,
		sizePct:   sizePct,
	}
}

func (s *Strategy) Intents(_ context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent {
	mid := snapshot.Conditions.MidPrice
	_, held := pf.Position(snapshot.TokenId)

	switch {
	case !held && mid.Lt(s.buyBelow):
		return []common.TradeIntent{{
			MarketId:  snapshot.MarketId,
			TokenId:   snapshot.TokenId,
			Side:      common.SideBuy,
			Price:     mid,
			SizePct:   s.sizePct,
			TimeStamp: snapshot.TimeStamp,
		}}
	case held && mid.Gt(s.sellAbove):
		return []common.TradeIntent{{
			MarketId:  snapshot.MarketId,
			TokenId:   snapshot.TokenId,
			Side:      common.SideSell,
			Price:     mid,
			SizePct:   fixed.One,
			TimeStamp: snapshot.TimeStamp,
		}}
	}
	return nil
}

func (s *Strategy) OnSnapshot(_ context.Context, snapshot common.MarketSnapshot) {
	s.logger.Debug("snapshot",
		zap.String("token_id", snapshot.TokenId),
		zap.String("mid", snapshot.Conditions.MidPrice.String()))
}

func (s *Strategy) OnTradeExecuted(_ context.Context, trade common.TradeExecuted) {
	s.logger.Debug("trade executed",
		zap.String("token_id", trade.TokenId),
		zap.String("side", trade.Side.String()),
		zap.String("quantity", trade.Result.TotalQuantity.String()),
		zap.String("average_price", trade.Result.AveragePrice.String()))
}

func (s *Strategy) OnTradeRejected(_ context.Context, rejection common.TradeRejected) {
	s.logger.Debug("trade rejected",
		zap.String("token_id", rejection.OriginalIntent.TokenId),
		zap.String("reason", rejection.Reason))
}

func (s *Strategy) OnEquity(_ context.Context, equity common.Equity) {
	s.logger.Debug("equity", zap.String("value", equity.Value.String()))
}
