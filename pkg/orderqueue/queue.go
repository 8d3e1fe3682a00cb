package orderqueue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/execution"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

const (
	defaultOrderTTL = time.Hour

	// Time in force handed to the fill model for resting limits.
	defaultLimitTimeInForce = time.Hour
)

var (
	ErrInvalidSide       = errors.New("invalid order side")
	ErrInvalidType       = errors.New("invalid order type")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrMissingLimitPrice = errors.New("limit price required for limit orders")
)

// Queue manages pending orders and retries them once per tick via
// ProcessPendingOrders. Completed orders are archived, never deleted,
// until ClearCompleted purges old ones.
type Queue struct {
	simulator *execution.Simulator
	logger    *zap.Logger

	defaultTTL time.Duration
	clock      func() time.Time
	handler    Handler

	pending   map[string]*Order
	completed map[string]*Order
	history   []Event
}

func NewQueue(simulator *execution.Simulator, logger *zap.Logger, options ...Option) *Queue {
	q := &Queue{
		simulator:  simulator,
		logger:     logger,
		defaultTTL: defaultOrderTTL,
		clock:      time.Now,
		pending:    make(map[string]*Order),
		completed:  make(map[string]*Order),
	}

	for _, option := range options {
		option(q)
	}

	return q
}

// SubmitOrder validates and enqueues a new order, returning its id.
// A zero ttl uses the queue default. Validation failures leave the
// queue untouched.
func (q *Queue) SubmitOrder(marketId, tokenId string, side common.Side, quantity fixed.Point, orderType common.OrderType, limitPrice fixed.Point, ttl time.Duration) (string, error) {
	if side != common.SideBuy && side != common.SideSell {
		return "", fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}
	if orderType != common.OrderTypeMarket && orderType != common.OrderTypeLimit {
		return "", fmt.Errorf("%w: %d", ErrInvalidType, orderType)
	}
	if orderType == common.OrderTypeLimit && limitPrice.IsZero() {
		return "", ErrMissingLimitPrice
	}
	if !quantity.IsPos() {
		return "", fmt.Errorf("%w: %s", ErrInvalidQuantity, quantity.String())
	}

	if ttl <= 0 {
		ttl = q.defaultTTL
	}

	now := q.clock()
	order := &Order{
		Id:               uuid.NewString()[:8],
		MarketId:         marketId,
		TokenId:          tokenId,
		Side:             side,
		Type:             orderType,
		Quantity:         quantity,
		LimitPrice:       limitPrice,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
		FilledQuantity:   fixed.Zero,
		AverageFillPrice: fixed.Zero,
		TotalCost:        fixed.Zero,
		Status:           StatusPending,
	}

	q.pending[order.Id] = order
	q.emit(EventSubmitted, order.Id)

	q.logger.Debug("order submitted",
		zap.String("order_id", order.Id),
		zap.String("token_id", tokenId),
		zap.String("side", side.String()),
		zap.String("type", orderType.String()),
		zap.String("quantity", quantity.String()),
	)

	return order.Id, nil
}

// ProcessPendingOrders runs one fill attempt for every pending order
// that has conditions supplied for its token. Orders past expiry are
// expired first; orders without conditions stay pending. Idempotent per
// tick, only the remaining quantity is retried.
func (q *Queue) ProcessPendingOrders(conditions map[string]common.MarketConditions) []common.ExecutionResult {
	var results []common.ExecutionResult
	now := q.clock()

	for _, order := range q.snapshotPending() {
		if now.After(order.ExpiresAt) {
			q.expireOrder(order.Id)
			continue
		}

		cond, ok := conditions[order.TokenId]
		if !ok {
			continue
		}

		var result common.ExecutionResult
		if order.Type == common.OrderTypeMarket {
			result = q.simulator.SimulateMarketOrder(order.Side, order.RemainingQuantity(), cond)
		} else {
			result = q.simulator.SimulateLimitOrder(order.Side, order.RemainingQuantity(), order.LimitPrice, cond, defaultLimitTimeInForce)
		}

		if result.TotalQuantity.IsPos() {
			q.applyFills(order, result)
			results = append(results, result)
		}
	}

	return results
}

// CancelOrder transitions an active order to cancelled and archives it.
// Returns false if the order is unknown or no longer active.
func (q *Queue) CancelOrder(orderId string) bool {
	order, ok := q.pending[orderId]
	if !ok || !order.IsActive() {
		return false
	}

	order.Status = StatusCancelled
	q.moveToCompleted(orderId)
	q.emit(EventCancelled, orderId)

	q.logger.Debug("order cancelled",
		zap.String("order_id", orderId),
		zap.String("filled_quantity", order.FilledQuantity.String()),
	)

	return true
}

// Order looks up an order by id across pending and completed orders.
func (q *Queue) Order(orderId string) (Order, bool) {
	if order, ok := q.pending[orderId]; ok {
		return *order, true
	}
	if order, ok := q.completed[orderId]; ok {
		return *order, true
	}
	return Order{}, false
}

// PendingOrders returns pending orders, optionally filtered by token.
func (q *Queue) PendingOrders(tokenId string) []Order {
	var orders []Order
	for _, order := range q.pending {
		if tokenId == "" || order.TokenId == tokenId {
			orders = append(orders, *order)
		}
	}
	return orders
}

// History returns the recorded lifecycle events in emission order.
func (q *Queue) History() []Event {
	return q.history
}

type Stats struct {
	PendingCount   int
	PendingValue   fixed.Point
	CompletedCount int
	FilledCount    int
	CancelledCount int
	ExpiredCount   int
	PartialFills   int
}

func (q *Queue) Stats() Stats {
	stats := Stats{PendingValue: fixed.Zero}

	for _, order := range q.pending {
		stats.PendingCount++
		price := order.LimitPrice
		if price.IsZero() {
			price = fixed.Half
		}
		stats.PendingValue = stats.PendingValue.Add(order.Quantity.Mul(price))
		if order.Status == StatusPartial {
			stats.PartialFills++
		}
	}

	for _, order := range q.completed {
		stats.CompletedCount++
		switch order.Status {
		case StatusFilled:
			stats.FilledCount++
		case StatusCancelled:
			stats.CancelledCount++
		case StatusExpired:
			stats.ExpiredCount++
		}
	}

	return stats
}

// ClearCompleted purges archived orders created before the retention
// window to bound memory.
func (q *Queue) ClearCompleted(olderThan time.Duration) {
	cutoff := q.clock().Add(-olderThan)
	for orderId, order := range q.completed {
		if order.CreatedAt.Before(cutoff) {
			delete(q.completed, orderId)
		}
	}
}

func (q *Queue) applyFills(order *Order, result common.ExecutionResult) {
	order.FilledQuantity = order.FilledQuantity.Add(result.TotalQuantity)
	order.TotalCost = order.TotalCost.Add(result.TotalCost)

	if order.FilledQuantity.IsPos() {
		order.AverageFillPrice = order.TotalCost.Div(order.FilledQuantity)
	}

	order.Fills = append(order.Fills, result.Fills...)

	if order.IsComplete() {
		order.Status = StatusFilled
		q.moveToCompleted(order.Id)
		q.emit(EventFilled, order.Id)

		q.logger.Debug("order filled",
			zap.String("order_id", order.Id),
			zap.String("average_price", order.AverageFillPrice.String()),
			zap.String("total_cost", order.TotalCost.String()),
		)
	} else {
		order.Status = StatusPartial
		q.emit(EventPartialFill, order.Id)

		q.logger.Debug("order partially filled",
			zap.String("order_id", order.Id),
			zap.String("filled_quantity", result.TotalQuantity.String()),
			zap.String("remaining", order.RemainingQuantity().String()),
		)
	}
}

func (q *Queue) expireOrder(orderId string) {
	order, ok := q.pending[orderId]
	if !ok {
		return
	}

	order.Status = StatusExpired
	q.moveToCompleted(orderId)
	q.emit(EventExpired, orderId)

	q.logger.Debug("order expired",
		zap.String("order_id", orderId),
		zap.String("filled_quantity", order.FilledQuantity.String()),
	)
}

func (q *Queue) moveToCompleted(orderId string) {
	if order, ok := q.pending[orderId]; ok {
		delete(q.pending, orderId)
		q.completed[orderId] = order
	}
}

func (q *Queue) emit(eventType EventType, orderId string) {
	event := Event{
		Type:      eventType,
		OrderId:   orderId,
		TimeStamp: q.clock(),
	}
	q.history = append(q.history, event)
	if q.handler != nil {
		q.handler(event)
	}
}

func (q *Queue) snapshotPending() []*Order {
	orders := make([]*Order, 0, len(q.pending))
	for _, order := range q.pending {
		orders = append(orders, order)
	}
	return orders
}
