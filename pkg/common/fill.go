package common

import (
	"time"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// Epsilon is the quantity below which a remainder counts as fully filled.
var Epsilon = fixed.MustParse("0.0001")

type Fill struct {
	Price     fixed.Point `json:"price"`
	Quantity  fixed.Point `json:"quantity"`
	TimeStamp time.Time   `json:"ts"`
	IsPartial bool        `json:"is_partial"`
}

func (f Fill) Value() fixed.Point {
	return f.Price.Mul(f.Quantity)
}

// ExecutionResult aggregates the fills produced by one simulated order.
// TotalQuantity + UnfilledQuantity always equals the requested quantity.
type ExecutionResult struct {
	Fills            []Fill      `json:"fills"`
	TotalQuantity    fixed.Point `json:"total_quantity"`
	AveragePrice     fixed.Point `json:"average_price"`
	TotalCost        fixed.Point `json:"total_cost"`
	SlippageBps      fixed.Point `json:"slippage_bps"`
	UnfilledQuantity fixed.Point `json:"unfilled_quantity"`
}

func (r ExecutionResult) RequestedQuantity() fixed.Point {
	return r.TotalQuantity.Add(r.UnfilledQuantity)
}

func (r ExecutionResult) IsComplete() bool {
	return r.UnfilledQuantity.Lt(Epsilon)
}

func (r ExecutionResult) IsPartial() bool {
	return r.TotalQuantity.IsPos() && !r.IsComplete()
}

// FillRate returns the filled share of the requested quantity in percent.
func (r ExecutionResult) FillRate() fixed.Point {
	requested := r.RequestedQuantity()
	if !requested.IsPos() {
		return fixed.Zero
	}
	return r.TotalQuantity.Div(requested).Mul(fixed.Hundred)
}
