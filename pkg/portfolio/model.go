package portfolio

import (
	"time"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/execution"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// ExecutionModel turns a trade intent into fills. Buy converts a dollar
// amount into quantity at the model's execution price, Sell liquidates
// a known quantity.
type ExecutionModel interface {
	Buy(amount fixed.Point, conditions common.MarketConditions) common.ExecutionResult
	Sell(quantity fixed.Point, conditions common.MarketConditions) common.ExecutionResult
}

var fixedSlippageRate = fixed.MustParse("0.001")

// FixedSlippageModel applies a flat 0.1% slippage against the mid price
// and always fills in full. Kept for compatibility with state produced
// before realistic fills existed.
type FixedSlippageModel struct {
	rate  fixed.Point
	clock func() time.Time
}

func NewFixedSlippageModel() *FixedSlippageModel {
	return &FixedSlippageModel{rate: fixedSlippageRate, clock: time.Now}
}

func (m *FixedSlippageModel) Buy(amount fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	finalPrice := conditions.MidPrice.Mul(fixed.One.Add(m.rate))
	quantity := fixed.Zero
	if finalPrice.IsPos() {
		quantity = amount.Div(finalPrice)
	}
	return m.result(finalPrice, quantity)
}

func (m *FixedSlippageModel) Sell(quantity fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	finalPrice := conditions.MidPrice.Mul(fixed.One.Sub(m.rate))
	return m.result(finalPrice, quantity)
}

func (m *FixedSlippageModel) result(price, quantity fixed.Point) common.ExecutionResult {
	var fills []common.Fill
	averagePrice := fixed.Zero
	if quantity.IsPos() {
		fills = append(fills, common.Fill{
			Price:     price,
			Quantity:  quantity,
			TimeStamp: m.clock(),
		})
		averagePrice = price
	}
	return common.ExecutionResult{
		Fills:            fills,
		TotalQuantity:    quantity,
		AveragePrice:     averagePrice,
		TotalCost:        quantity.Mul(price),
		SlippageBps:      m.rate.Mul(fixed.TenThousand),
		UnfilledQuantity: fixed.Zero,
	}
}

// SimulatedFillModel executes through a fill simulator, so trades see
// variable slippage and partial fills.
type SimulatedFillModel struct {
	simulator *execution.Simulator
}

func NewSimulatedFillModel(simulator *execution.Simulator) *SimulatedFillModel {
	return &SimulatedFillModel{simulator: simulator}
}

func (m *SimulatedFillModel) Buy(amount fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	if !conditions.MidPrice.IsPos() {
		return common.ExecutionResult{
			TotalQuantity:    fixed.Zero,
			AveragePrice:     fixed.Zero,
			TotalCost:        fixed.Zero,
			SlippageBps:      fixed.Zero,
			UnfilledQuantity: fixed.Zero,
		}
	}
	quantity := amount.Div(conditions.MidPrice)
	return m.simulator.SimulateMarketOrder(common.SideBuy, quantity, conditions)
}

func (m *SimulatedFillModel) Sell(quantity fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	return m.simulator.SimulateMarketOrder(common.SideSell, quantity, conditions)
}
