package common

import (
	"fmt"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// MarketConditions is an immutable snapshot of the market state a single
// execution is simulated against. Prices are probabilities in (0,1),
// Spread is a decimal fraction of mid, Liquidity is dollar depth at best.
type MarketConditions struct {
	MidPrice   fixed.Point `json:"mid_price"`
	BidPrice   fixed.Point `json:"bid_price"`
	AskPrice   fixed.Point `json:"ask_price"`
	Spread     fixed.Point `json:"spread"`
	Liquidity  fixed.Point `json:"liquidity"`
	Volume24h  fixed.Point `json:"volume_24h"`
	Volatility fixed.Point `json:"volatility"`
}

// ConditionsFromPrice builds a snapshot around a mid price by splitting the
// spread symmetrically. Degenerate inputs are kept as-is, the execution
// layer saturates on them instead of failing.
func ConditionsFromPrice(mid, spread, liquidity, volume24h, volatility fixed.Point) MarketConditions {
	half := spread.Mul(mid).Div(fixed.Two)
	return MarketConditions{
		MidPrice:   mid,
		BidPrice:   mid.Sub(half),
		AskPrice:   mid.Add(half),
		Spread:     spread,
		Liquidity:  liquidity,
		Volume24h:  volume24h,
		Volatility: volatility,
	}
}

func (c MarketConditions) Validate() error {
	if c.BidPrice.Gt(c.MidPrice) || c.MidPrice.Gt(c.AskPrice) {
		return fmt.Errorf("invalid conditions: bid %s > mid %s or mid > ask %s",
			c.BidPrice.String(), c.MidPrice.String(), c.AskPrice.String())
	}
	return nil
}
