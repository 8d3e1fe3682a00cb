// Package orderqueue tracks resting orders across repeated market
// snapshots until they fill, expire or are cancelled.
package orderqueue

import (
	"time"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusFilled    Status = "filled"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusRejected  Status = "rejected"
)

// Order is a resting order tracked by the queue. Filled quantity, cost
// and average price accumulate across processing ticks.
type Order struct {
	Id               string           `json:"order_id"`
	MarketId         string           `json:"market_id"`
	TokenId          string           `json:"token_id"`
	Side             common.Side      `json:"side"`
	Type             common.OrderType `json:"order_type"`
	Quantity         fixed.Point      `json:"quantity"`
	LimitPrice       fixed.Point      `json:"limit_price,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
	FilledQuantity   fixed.Point      `json:"filled_quantity"`
	AverageFillPrice fixed.Point      `json:"average_fill_price"`
	TotalCost        fixed.Point      `json:"total_cost"`
	Status           Status           `json:"status"`
	Fills            []common.Fill    `json:"fills"`
}

func (o *Order) RemainingQuantity() fixed.Point {
	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) IsComplete() bool {
	return o.RemainingQuantity().Lt(common.Epsilon)
}

// IsActive reports whether the order can still receive fills.
func (o *Order) IsActive() bool {
	return o.Status == StatusPending || o.Status == StatusPartial
}

func (o *Order) FillPercentage() fixed.Point {
	if !o.Quantity.IsPos() {
		return fixed.Zero
	}
	return o.FilledQuantity.Div(o.Quantity).Mul(fixed.Hundred)
}

type EventType string

const (
	EventSubmitted   EventType = "submitted"
	EventPartialFill EventType = "partial_fill"
	EventFilled      EventType = "filled"
	EventCancelled   EventType = "cancelled"
	EventExpired     EventType = "expired"
)

// Event records one lifecycle transition of an order.
type Event struct {
	Type      EventType
	OrderId   string
	TimeStamp time.Time
}

// Handler receives lifecycle events as they happen.
type Handler func(Event)
