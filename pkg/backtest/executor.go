package backtest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/bus"
	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/orderqueue"
	"github.com/altrega/paperbroker/pkg/portfolio"
	"github.com/altrega/paperbroker/pkg/utility"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

const executorComponentName = "backtest.executor"

// SnapshotSource feeds market snapshots in time order. Sources return
// their end-of-data sentinel when exhausted.
type SnapshotSource interface {
	Next() (common.MarketSnapshot, error)
}

// Strategy inspects one snapshot and the current ledger and produces
// zero or more trade intents.
type Strategy func(ctx context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent

// Executor replays a snapshot source through a strategy, executes the
// resulting intents against the portfolio, retries resting orders via
// the queue, and posts every step on the router.
type Executor struct {
	logger    *zap.Logger
	router    *bus.Router
	source    SnapshotSource
	strategy  Strategy
	portfolio *portfolio.Portfolio
	queue     *orderqueue.Queue
	audit     *Audit

	conditions map[string]common.MarketConditions
}

func NewExecutor(
	logger *zap.Logger,
	router *bus.Router,
	source SnapshotSource,
	strategy Strategy,
	pf *portfolio.Portfolio,
	queue *orderqueue.Queue,
	audit *Audit) *Executor {

	return &Executor{
		logger:     logger,
		router:     router,
		source:     source,
		strategy:   strategy,
		portfolio:  pf,
		queue:      queue,
		audit:      audit,
		conditions: make(map[string]common.MarketConditions),
	}
}

// Feed advances the backtest by one snapshot. Returns the source's
// end-of-data error when the replay is finished.
func (e *Executor) Feed(ctx context.Context) error {
	snapshot, err := e.source.Next()
	if err != nil {
		return err
	}

	if postErr := e.router.Post(bus.SnapshotEvent, snapshot); postErr != nil {
		e.logger.Warn("unable to post snapshot event", zap.Error(postErr))
	}

	e.conditions[snapshot.TokenId] = snapshot.Conditions

	e.portfolio.UpdatePositionPrices(map[string]fixed.Point{
		snapshot.TokenId: snapshot.Conditions.MidPrice,
	})
	if position, ok := e.portfolio.Position(snapshot.TokenId); ok {
		e.postPositionEvent(bus.PositionUpdateEvent, position, snapshot)
	}

	e.queue.ProcessPendingOrders(e.conditions)

	for _, intent := range e.strategy(ctx, snapshot, e.portfolio) {
		e.execute(intent, snapshot)
	}

	balance := e.portfolio.CashBalance()
	equity := e.portfolio.TotalValue()

	if postErr := e.router.Post(bus.BalanceEvent, common.Balance{
		Value:       balance,
		Source:      executorComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   snapshot.TimeStamp,
	}); postErr != nil {
		e.logger.Warn("unable to post balance event", zap.Error(postErr))
	}
	if postErr := e.router.Post(bus.EquityEvent, common.Equity{
		Value:       equity,
		Source:      executorComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   snapshot.TimeStamp,
	}); postErr != nil {
		e.logger.Warn("unable to post equity event", zap.Error(postErr))
	}

	e.audit.AddAccountSnapshot(balance, equity, snapshot.TimeStamp)

	return nil
}

func (e *Executor) execute(intent common.TradeIntent, snapshot common.MarketSnapshot) {
	if postErr := e.router.Post(bus.IntentEvent, intent); postErr != nil {
		e.logger.Warn("unable to post intent event", zap.Error(postErr))
	}

	var conditions *common.MarketConditions
	if cond, ok := e.conditions[intent.TokenId]; ok {
		conditions = &cond
	}

	realizedBefore := e.portfolio.RealizedPnL()
	positionBefore, hadPosition := e.portfolio.Position(intent.TokenId)

	position, result, err := e.portfolio.ExecuteSimulatedTrade(portfolio.TradeRequest{
		MarketId:   intent.MarketId,
		TokenId:    intent.TokenId,
		Question:   intent.Question,
		Outcome:    intent.Outcome,
		Side:       intent.Side,
		Price:      intent.Price,
		SizePct:    intent.SizePct,
		Conditions: conditions,
	})
	if err != nil {
		if errors.Is(err, portfolio.ErrInsufficientFunds) || errors.Is(err, portfolio.ErrNoPosition) {
			if postErr := e.router.Post(bus.TradeRejectedEvent, common.TradeRejected{
				OriginalIntent: intent,
				Reason:         err.Error(),
				Source:         executorComponentName,
				ExecutionId:    utility.GetExecutionID(),
				TraceID:        utility.CreateTraceID(),
				TimeStamp:      snapshot.TimeStamp,
			}); postErr != nil {
				e.logger.Warn("unable to post trade rejected event", zap.Error(postErr))
			}
			return
		}
		e.logger.Error("trade execution failed", zap.Error(err))
		return
	}

	if result.TotalQuantity.IsPos() {
		if postErr := e.router.Post(bus.TradeExecutedEvent, common.TradeExecuted{
			TokenId:     intent.TokenId,
			Side:        intent.Side,
			Result:      result,
			Source:      executorComponentName,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   snapshot.TimeStamp,
		}); postErr != nil {
			e.logger.Warn("unable to post trade executed event", zap.Error(postErr))
		}
	}

	if position != nil && !hadPosition {
		e.postPositionEvent(bus.PositionOpenEvent, *position, snapshot)
	}

	if intent.Side == common.SideSell && hadPosition {
		if _, stillOpen := e.portfolio.Position(intent.TokenId); !stillOpen {
			e.audit.AddClosedTrade(ClosedTrade{
				TokenId:   intent.TokenId,
				OpenTime:  positionBefore.EntryTime,
				CloseTime: snapshot.TimeStamp,
				NetProfit: e.portfolio.RealizedPnL().Sub(realizedBefore),
			})
			e.postPositionEvent(bus.PositionCloseEvent, positionBefore, snapshot)
		}
	}
}

func (e *Executor) postPositionEvent(id bus.EventId, position portfolio.Position, snapshot common.MarketSnapshot) {
	if postErr := e.router.Post(id, common.PositionUpdate{
		TokenId:       position.TokenId,
		Quantity:      position.Quantity,
		EntryPrice:    position.EntryPrice,
		CurrentPrice:  position.CurrentPrice,
		UnrealizedPnL: position.UnrealizedPnL,
		Source:        executorComponentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     snapshot.TimeStamp,
	}); postErr != nil {
		e.logger.Warn("unable to post position event", zap.Error(postErr))
	}
}
