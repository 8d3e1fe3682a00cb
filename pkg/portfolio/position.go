// Package portfolio is the ledger of record: cash, positions and
// realized P&L, with execution delegated to a pluggable model.
package portfolio

import (
	"time"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// Position is one row per distinct token held. Entry fields track the
// volume-weighted cost basis, current fields are refreshed on every
// price update. Owned and mutated exclusively by Portfolio.
type Position struct {
	MarketId      string      `json:"market_id"`
	TokenId       string      `json:"token_id"`
	Question      string      `json:"question"`
	Outcome       string      `json:"outcome"`
	Side          common.Side `json:"side"`
	EntryPrice    fixed.Point `json:"entry_price"`
	Quantity      fixed.Point `json:"quantity"`
	EntryValue    fixed.Point `json:"entry_value"`
	EntryTime     time.Time   `json:"entry_time"`
	TradeId       int64       `json:"trade_id"`
	CurrentPrice  fixed.Point `json:"current_price"`
	CurrentValue  fixed.Point `json:"current_value"`
	UnrealizedPnL fixed.Point `json:"unrealized_pnl"`
}

// UpdateValuation refreshes the mark-to-market fields. No cash or
// realized P&L effects.
func (p *Position) UpdateValuation(currentPrice fixed.Point) {
	p.CurrentPrice = currentPrice
	p.CurrentValue = p.Quantity.Mul(currentPrice)
	if p.Side == common.SideBuy {
		p.UnrealizedPnL = p.CurrentValue.Sub(p.EntryValue)
	} else {
		p.UnrealizedPnL = p.EntryValue.Sub(p.CurrentValue)
	}
}
