// Package execution simulates order fills against a market snapshot,
// modeling slippage, market impact and partial fills.
package execution

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type Config struct {
	BaseSlippageBps    fixed.Point
	MaxSlippageBps     fixed.Point
	EnablePartialFills bool
}

func DefaultConfig() Config {
	return Config{
		BaseSlippageBps:    fixed.FromInt(10, 0),
		MaxSlippageBps:     fixed.FromInt(500, 0),
		EnablePartialFills: true,
	}
}

const (
	// An order above this share of available liquidity is likely to
	// exhaust the near book and fill only partially.
	largeOrderThreshold = 0.1

	// Ambient chance of a minor partial fill on any order.
	partialFillProbability = 0.15

	// Order-to-liquidity ratios saturate here. Taken in float64, a
	// decimal division by dust liquidity overflows the mantissa.
	maxSizeRatio = 100.0
)

var (
	sizeImpactCoefficient = fixed.FromInt(50, 0)
	liquidityPenaltyBps   = fixed.FromInt(30, 0)
	volatilityShare       = fixed.MustParse("0.1")
)

// Simulator models single-shot market and limit order executions.
// All randomness is drawn from the injected generator, so a fixed seed
// makes an instance fully deterministic.
type Simulator struct {
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand
	clock  func() time.Time
}

func NewSimulator(cfg Config, logger *zap.Logger, options ...Option) *Simulator {
	s := &Simulator{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:  time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// CalculateSlippage combines base slippage, square-root market impact,
// a low-liquidity penalty, half the spread and a volatility nudge,
// capped at the configured maximum and jittered by +/- 20%.
// Returned as a decimal fraction.
func (s *Simulator) CalculateSlippage(orderValue fixed.Point, side common.Side, conditions common.MarketConditions) fixed.Point {
	slippageBps := s.cfg.BaseSlippageBps

	if conditions.Liquidity.IsPos() && orderValue.IsPos() {
		value, _ := orderValue.Float64()
		depth, _ := conditions.Liquidity.Float64()
		sizeRatio := fixed.FromFloat64(math.Min(value/depth, maxSizeRatio))
		slippageBps = slippageBps.Add(sizeImpactCoefficient.Mul(sizeRatio.Sqrt()))
	}

	if conditions.Liquidity.Lt(fixed.Thousand) {
		penalty := fixed.Thousand.Sub(conditions.Liquidity).Div(fixed.Thousand).Mul(liquidityPenaltyBps)
		slippageBps = slippageBps.Add(penalty)
	}

	// Crossing cost, half the quoted spread.
	slippageBps = slippageBps.Add(conditions.Spread.Mul(fixed.TenThousand).Div(fixed.Two))

	if conditions.Volatility.IsPos() {
		slippageBps = slippageBps.Add(conditions.Volatility.Mul(fixed.Hundred).Mul(volatilityShare))
	}

	slippageBps = fixed.Min(slippageBps, s.cfg.MaxSlippageBps)
	slippageBps = slippageBps.Mul(fixed.FromFloat64(s.uniform(0.8, 1.2)))

	return slippageBps.Div(fixed.TenThousand)
}

// ExecutionPrice adjusts the base price by slippage against the taker.
func (s *Simulator) ExecutionPrice(side common.Side, basePrice, slippage fixed.Point) fixed.Point {
	if side == common.SideBuy {
		return basePrice.Mul(fixed.One.Add(slippage))
	}
	return basePrice.Mul(fixed.One.Sub(slippage))
}

// ShouldPartialFill decides whether an order fills only partially and by
// what fraction. Two independent causes are modeled: orders large
// relative to liquidity, and ambient market friction. The first trigger
// that fires decides the outcome.
func (s *Simulator) ShouldPartialFill(orderValue fixed.Point, conditions common.MarketConditions) (bool, fixed.Point) {
	if !s.cfg.EnablePartialFills {
		return false, fixed.One
	}

	value, _ := orderValue.Float64()
	liquidity, _ := fixed.Max(conditions.Liquidity, fixed.One).Float64()
	sizeRatio := value / liquidity

	if sizeRatio > largeOrderThreshold {
		partialProb := math.Min(0.8, sizeRatio*2)
		if s.rng.Float64() < partialProb {
			return true, fixed.FromFloat64(s.uniform(0.5, 0.95))
		}
	}

	if s.rng.Float64() < partialFillProbability {
		return true, fixed.FromFloat64(s.uniform(0.7, 0.99))
	}

	return false, fixed.One
}

// SimulateMarketOrder executes against the best quote with slippage and
// the partial-fill model applied.
func (s *Simulator) SimulateMarketOrder(side common.Side, quantity fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	basePrice := conditions.BidPrice
	if side == common.SideBuy {
		basePrice = conditions.AskPrice
	}

	orderValue := quantity.Mul(basePrice)
	slippage := s.CalculateSlippage(orderValue, side, conditions)
	isPartial, fillPct := s.ShouldPartialFill(orderValue, conditions)

	filledQuantity := quantity.Mul(fillPct)
	executionPrice := s.ExecutionPrice(side, basePrice, slippage)

	var fills []common.Fill
	averagePrice := fixed.Zero
	if filledQuantity.IsPos() {
		fills = append(fills, common.Fill{
			Price:     executionPrice,
			Quantity:  filledQuantity,
			TimeStamp: s.clock(),
			IsPartial: isPartial,
		})
		averagePrice = executionPrice
	}

	result := common.ExecutionResult{
		Fills:            fills,
		TotalQuantity:    filledQuantity,
		AveragePrice:     averagePrice,
		TotalCost:        filledQuantity.Mul(executionPrice),
		SlippageBps:      slippage.Mul(fixed.TenThousand),
		UnfilledQuantity: quantity.Sub(filledQuantity),
	}

	s.logger.Debug("market order simulated",
		zap.String("side", side.String()),
		zap.String("quantity", quantity.String()),
		zap.String("average_price", result.AveragePrice.String()),
		zap.String("slippage_bps", result.SlippageBps.String()),
		zap.Bool("partial", isPartial),
	)

	return result
}

// SimulateLimitOrder executes a marketable limit immediately with the
// final price clamped to the limit, or models the fill probability of a
// resting order from its distance to mid and the time in force.
func (s *Simulator) SimulateLimitOrder(side common.Side, quantity, limitPrice fixed.Point, conditions common.MarketConditions, timeInForce time.Duration) common.ExecutionResult {
	var marketable bool
	var bestPrice fixed.Point
	if side == common.SideBuy {
		marketable = limitPrice.Gte(conditions.AskPrice)
		bestPrice = conditions.AskPrice
	} else {
		marketable = limitPrice.Lte(conditions.BidPrice)
		bestPrice = conditions.BidPrice
	}

	if marketable {
		return s.fillMarketableLimit(side, quantity, limitPrice, bestPrice, conditions)
	}
	return s.fillRestingLimit(side, quantity, limitPrice, conditions, timeInForce)
}

func (s *Simulator) fillMarketableLimit(side common.Side, quantity, limitPrice, bestPrice fixed.Point, conditions common.MarketConditions) common.ExecutionResult {
	orderValue := quantity.Mul(bestPrice)
	slippage := s.CalculateSlippage(orderValue, side, conditions)
	slippagePrice := s.ExecutionPrice(side, bestPrice, slippage)

	// The limit caps how bad the fill can get.
	var finalPrice fixed.Point
	if side == common.SideBuy {
		finalPrice = fixed.Min(slippagePrice, limitPrice)
	} else {
		finalPrice = fixed.Max(slippagePrice, limitPrice)
	}

	isPartial, fillPct := s.ShouldPartialFill(orderValue, conditions)
	filledQuantity := quantity.Mul(fillPct)

	var fills []common.Fill
	averagePrice := fixed.Zero
	if filledQuantity.IsPos() {
		fills = append(fills, common.Fill{
			Price:     finalPrice,
			Quantity:  filledQuantity,
			TimeStamp: s.clock(),
			IsPartial: isPartial,
		})
		averagePrice = finalPrice
	}

	// Report the realized distance from mid, not the pre-clamp slippage.
	actualSlippage := fixed.Zero
	if conditions.MidPrice.IsPos() {
		actualSlippage = finalPrice.Sub(conditions.MidPrice).Abs().Div(conditions.MidPrice)
	}

	return common.ExecutionResult{
		Fills:            fills,
		TotalQuantity:    filledQuantity,
		AveragePrice:     averagePrice,
		TotalCost:        filledQuantity.Mul(finalPrice),
		SlippageBps:      actualSlippage.Mul(fixed.TenThousand),
		UnfilledQuantity: quantity.Sub(filledQuantity),
	}
}

func (s *Simulator) fillRestingLimit(side common.Side, quantity, limitPrice fixed.Point, conditions common.MarketConditions, timeInForce time.Duration) common.ExecutionResult {
	fillProb := 0.0
	if conditions.MidPrice.IsPos() {
		distance, _ := limitPrice.Sub(conditions.MidPrice).Abs().Div(conditions.MidPrice).Float64()

		// 10% away from mid puts the fill probability at zero, a full
		// hour of time in force restores the full factor. Resting
		// orders never exceed a coin flip.
		baseFillProb := math.Max(0, 1-distance*10)
		timeFactor := math.Min(1, timeInForce.Seconds()/3600)
		fillProb = baseFillProb * timeFactor * 0.5
	}

	if s.rng.Float64() >= fillProb {
		return common.ExecutionResult{
			AveragePrice:     fixed.Zero,
			TotalQuantity:    fixed.Zero,
			TotalCost:        fixed.Zero,
			SlippageBps:      fixed.Zero,
			UnfilledQuantity: quantity,
		}
	}

	filledQuantity := quantity.Mul(fixed.FromFloat64(s.uniform(0.5, 1.0)))

	fills := []common.Fill{{
		Price:     limitPrice,
		Quantity:  filledQuantity,
		TimeStamp: s.clock(),
		IsPartial: filledQuantity.Lt(quantity),
	}}

	return common.ExecutionResult{
		Fills:            fills,
		TotalQuantity:    filledQuantity,
		AveragePrice:     limitPrice,
		TotalCost:        filledQuantity.Mul(limitPrice),
		SlippageBps:      fixed.Zero,
		UnfilledQuantity: quantity.Sub(filledQuantity),
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
