// Package orderbook synthesizes multi-level order books from aggregate
// market stats and walks them for depth-aware fill estimates.
package orderbook

import (
	"time"

	"github.com/google/btree"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

const btreeDegree = 32

// Level is a single price level with the quantity resting at it.
type Level struct {
	Price fixed.Point
	Size  fixed.Point
}

// Value is the dollar value resting at this level.
func (l Level) Value() fixed.Point {
	return l.Price.Mul(l.Size)
}

func bidLess(a, b Level) bool { return a.Price.Gt(b.Price) }
func askLess(a, b Level) bool { return a.Price.Lt(b.Price) }

// Book holds both sides keyed by price, best price first on iteration.
// Prices are unique per side, inserting at an existing price replaces
// the level.
type Book struct {
	bids *btree.BTreeG[Level]
	asks *btree.BTreeG[Level]

	TimeStamp time.Time
}

func NewBook(ts time.Time) *Book {
	return &Book{
		bids:      btree.NewG(btreeDegree, bidLess),
		asks:      btree.NewG(btreeDegree, askLess),
		TimeStamp: ts,
	}
}

func (b *Book) AddBid(level Level) { b.bids.ReplaceOrInsert(level) }
func (b *Book) AddAsk(level Level) { b.asks.ReplaceOrInsert(level) }

func (b *Book) BestBid() (Level, bool) { return b.bids.Min() }
func (b *Book) BestAsk() (Level, bool) { return b.asks.Min() }

// MidPrice defaults to 0.5 when either side is empty.
func (b *Book) MidPrice() fixed.Point {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return fixed.Half
	}
	return bid.Price.Add(ask.Price).Div(fixed.Two)
}

// Spread is the bid-ask gap as a decimal fraction of mid.
func (b *Book) Spread() fixed.Point {
	mid := b.MidPrice()
	if !mid.IsPos() {
		return fixed.Zero
	}

	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return fixed.Zero
	}
	return ask.Price.Sub(bid.Price).Div(mid)
}

func (b *Book) TotalBidLiquidity() fixed.Point { return sideLiquidity(b.bids) }
func (b *Book) TotalAskLiquidity() fixed.Point { return sideLiquidity(b.asks) }

func sideLiquidity(side *btree.BTreeG[Level]) fixed.Point {
	total := fixed.Zero
	side.Ascend(func(level Level) bool {
		total = total.Add(level.Value())
		return true
	})
	return total
}

// BidDepthAtPrice is the total bid value at or above the given price.
func (b *Book) BidDepthAtPrice(price fixed.Point) fixed.Point {
	total := fixed.Zero
	b.bids.Ascend(func(level Level) bool {
		if level.Price.Lt(price) {
			return false
		}
		total = total.Add(level.Value())
		return true
	})
	return total
}

// AskDepthAtPrice is the total ask value at or below the given price.
func (b *Book) AskDepthAtPrice(price fixed.Point) fixed.Point {
	total := fixed.Zero
	b.asks.Ascend(func(level Level) bool {
		if level.Price.Gt(price) {
			return false
		}
		total = total.Add(level.Value())
		return true
	})
	return total
}

// Bids returns the bid levels best first.
func (b *Book) Bids() []Level { return sideLevels(b.bids) }

// Asks returns the ask levels best first.
func (b *Book) Asks() []Level { return sideLevels(b.asks) }

func sideLevels(side *btree.BTreeG[Level]) []Level {
	levels := make([]Level, 0, side.Len())
	side.Ascend(func(level Level) bool {
		levels = append(levels, level)
		return true
	})
	return levels
}

// Conditions summarizes the book into an execution snapshot. Liquidity
// is the thinner of the two sides.
func (b *Book) Conditions(volume24h, volatility fixed.Point) common.MarketConditions {
	bid, okBid := b.BestBid()
	if !okBid {
		bid = Level{Price: fixed.Zero}
	}
	ask, okAsk := b.BestAsk()
	if !okAsk {
		ask = Level{Price: fixed.One}
	}
	return common.MarketConditions{
		MidPrice:   b.MidPrice(),
		BidPrice:   bid.Price,
		AskPrice:   ask.Price,
		Spread:     b.Spread(),
		Liquidity:  fixed.Min(b.TotalBidLiquidity(), b.TotalAskLiquidity()),
		Volume24h:  volume24h,
		Volatility: volatility,
	}
}
