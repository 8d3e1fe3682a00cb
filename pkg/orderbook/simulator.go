package orderbook

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/spread"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// Estimator supplies a spread when the caller does not provide one.
type Estimator interface {
	Spread(in spread.Input) fixed.Point
}

const (
	defaultLevels = 10

	// Share of the half-spread used as the price step between levels.
	priceStepShare = "0.3"
)

var (
	defaultDecayRate = fixed.MustParse("0.7")
	minLevelValue    = fixed.One
	priceStepFactor  = fixed.MustParse(priceStepShare)
)

// Simulator generates synthetic books from aggregate stats and walks
// them level by level for depth-aware execution estimates.
type Simulator struct {
	spread    Estimator
	logger    *zap.Logger
	numLevels int
	decayRate fixed.Point
	rng       *rand.Rand
	clock     func() time.Time
}

func NewSimulator(estimator Estimator, logger *zap.Logger, options ...Option) *Simulator {
	s := &Simulator{
		spread:    estimator,
		logger:    logger,
		numLevels: defaultLevels,
		decayRate: defaultDecayRate,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:     time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Generate builds a synthetic book around the mid price. A zero
// spreadOverride derives the spread from the estimator. Total liquidity
// is split 45-55 between the sides at random and decays geometrically
// away from the top of book.
func (s *Simulator) Generate(midPrice, totalLiquidity, spreadOverride, volatility fixed.Point) *Book {
	bookSpread := spreadOverride
	if bookSpread.IsZero() {
		bookSpread = s.spread.Spread(spread.Input{
			Liquidity:  totalLiquidity,
			Volatility: volatility,
			Price:      midPrice,
		})
	}

	halfSpread := bookSpread.Div(fixed.Two)
	bestBid := midPrice.Mul(fixed.One.Sub(halfSpread))
	bestAsk := midPrice.Mul(fixed.One.Add(halfSpread))

	bidLiquidity := totalLiquidity.Mul(fixed.FromFloat64(s.uniform(0.45, 0.55)))
	askLiquidity := totalLiquidity.Sub(bidLiquidity)

	book := NewBook(s.clock())
	for _, level := range s.generateLevels(bestBid, -1, bidLiquidity, midPrice) {
		book.AddBid(level)
	}
	for _, level := range s.generateLevels(bestAsk, +1, askLiquidity, midPrice) {
		book.AddAsk(level)
	}

	s.logger.Debug("synthetic book generated",
		zap.String("mid_price", midPrice.String()),
		zap.String("spread", bookSpread.String()),
		zap.Int("bid_levels", len(book.Bids())),
		zap.Int("ask_levels", len(book.Asks())),
	)

	return book
}

func (s *Simulator) generateLevels(startPrice fixed.Point, direction int, totalLiquidity, midPrice fixed.Point) []Level {
	var levels []Level
	remaining := totalLiquidity

	priceStep := startPrice.Sub(midPrice).Abs().Mul(priceStepFactor)
	decayFactor := fixed.One
	levelShare := fixed.One.Sub(s.decayRate)

	for i := 0; i < s.numLevels; i++ {
		if remaining.Lt(minLevelValue) {
			break
		}

		price := startPrice.Add(priceStep.MulInt(direction * i))
		if !price.IsPos() || price.Gte(fixed.One) {
			break
		}

		levelLiquidity := totalLiquidity.Mul(decayFactor).Mul(levelShare)
		levelLiquidity = levelLiquidity.Mul(fixed.FromFloat64(s.uniform(0.7, 1.3)))
		levelLiquidity = fixed.Min(levelLiquidity, remaining)
		decayFactor = decayFactor.Mul(s.decayRate)

		if levelLiquidity.IsPos() {
			levels = append(levels, Level{
				Price: price.Rescale(4),
				Size:  levelLiquidity.Div(price),
			})
			remaining = remaining.Sub(levelLiquidity)
		}
	}

	return levels
}

// Walk greedily consumes levels best price first, asks for a buy and
// bids for a sell. Returns the fills, the value-weighted average price
// and the unfilled remainder.
func (s *Simulator) Walk(book *Book, side common.Side, quantity fixed.Point) ([]common.Fill, fixed.Point, fixed.Point) {
	levels := book.Bids()
	if side == common.SideBuy {
		levels = book.Asks()
	}

	var fills []common.Fill
	remaining := quantity
	totalCost := fixed.Zero
	ts := s.clock()

	for _, level := range levels {
		if !remaining.IsPos() {
			break
		}

		fillQuantity := fixed.Min(remaining, level.Size)
		if fillQuantity.IsPos() {
			fills = append(fills, common.Fill{
				Price:     level.Price,
				Quantity:  fillQuantity,
				TimeStamp: ts,
				IsPartial: remaining.Gt(level.Size),
			})
			totalCost = totalCost.Add(fillQuantity.Mul(level.Price))
			remaining = remaining.Sub(fillQuantity)
		}
	}

	filled := quantity.Sub(remaining)
	averagePrice := fixed.Zero
	if filled.IsPos() {
		averagePrice = totalCost.Div(filled)
	}

	return fills, averagePrice, remaining
}

// Estimate wraps Walk and reports slippage as the distance between the
// walked average price and the book's mid.
func (s *Simulator) Estimate(book *Book, side common.Side, quantity fixed.Point) common.ExecutionResult {
	fills, averagePrice, unfilled := s.Walk(book, side, quantity)

	slippageBps := fixed.Zero
	mid := book.MidPrice()
	if len(fills) > 0 && mid.IsPos() {
		slippageBps = averagePrice.Sub(mid).Abs().Div(mid).Mul(fixed.TenThousand)
	}

	totalCost := fixed.Zero
	for _, fill := range fills {
		totalCost = totalCost.Add(fill.Value())
	}

	return common.ExecutionResult{
		Fills:            fills,
		TotalQuantity:    quantity.Sub(unfilled),
		AveragePrice:     averagePrice,
		TotalCost:        totalCost,
		SlippageBps:      slippageBps,
		UnfilledQuantity: unfilled,
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
