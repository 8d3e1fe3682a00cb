// Package spread models dynamic bid-ask spreads from market conditions.
// Spreads widen with low liquidity, large orders, volatility and off-hours.
package spread

import (
	"math"
	"time"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type Config struct {
	BaseSpread fixed.Point
	MinSpread  fixed.Point
	MaxSpread  fixed.Point
}

func DefaultConfig() Config {
	return Config{
		BaseSpread: fixed.MustParse("0.005"),
		MinSpread:  fixed.MustParse("0.001"),
		MaxSpread:  fixed.MustParse("0.10"),
	}
}

// Input bundles the market observables a spread estimate is derived from.
// Price is only consulted by the prediction-market model.
type Input struct {
	Liquidity  fixed.Point
	Volume24h  fixed.Point
	OrderSize  fixed.Point
	Volatility fixed.Point
	Price      fixed.Point
	TimeStamp  time.Time
}

// Factors is the per-component breakdown of a spread estimate.
type Factors struct {
	BaseSpread       fixed.Point
	LiquidityFactor  fixed.Point
	SizeFactor       fixed.Point
	VolatilityFactor fixed.Point
	TimeFactor       fixed.Point
	TotalSpread      fixed.Point
}

var (
	referenceLiquidity = fixed.FromInt(10000, 0)

	liquidityWeight  = fixed.MustParse("0.3")
	sizeWeight       = fixed.MustParse("0.2")
	volatilityWeight = fixed.MustParse("0.3")
	timeWeight       = fixed.MustParse("0.1")

	maxLiquidityFactor = fixed.FromInt(3, 0)
	minLiquidityFactor = fixed.Half
	logDamping         = fixed.MustParse("0.3")
	minLogRatio        = fixed.MustParse("0.1")

	maxVolatilityFactor = fixed.FromInt(3, 0)
	volatilityScale     = fixed.FromInt(10, 0)
)

// Size ratios saturate here. Taken in float64, a decimal division by
// dust liquidity overflows the mantissa.
const maxSizeRatio = 100.0

type Model struct {
	cfg Config
}

func NewModel(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// LiquidityFactor widens the spread as liquidity falls below the reference
// level, on a damped log curve. No liquidity saturates at the maximum.
func (m *Model) LiquidityFactor(liquidity fixed.Point) fixed.Point {
	// The damped log already saturates below one unit of liquidity,
	// and the reference ratio would overflow the decimal mantissa.
	if liquidity.Lt(fixed.One) {
		return maxLiquidityFactor
	}

	ratio := fixed.Max(referenceLiquidity.Div(liquidity), minLogRatio)
	factor := fixed.One.Add(ratio.Log().Mul(logDamping))

	return fixed.Clamp(factor, minLiquidityFactor, maxLiquidityFactor)
}

// SizeFactor ramps up as the order consumes a larger share of the
// available liquidity, with steeper tiers past 5% and 20%.
func (m *Model) SizeFactor(orderSize, liquidity fixed.Point) fixed.Point {
	if !liquidity.IsPos() {
		return fixed.Two
	}

	size, _ := orderSize.Float64()
	depth, _ := liquidity.Float64()
	sizeRatio := fixed.FromFloat64(math.Min(size/depth, maxSizeRatio))

	switch {
	case sizeRatio.Lt(fixed.MustParse("0.01")):
		return fixed.One
	case sizeRatio.Lt(fixed.MustParse("0.05")):
		return fixed.One.Add(sizeRatio.MulInt(5))
	case sizeRatio.Lt(fixed.MustParse("0.20")):
		return fixed.MustParse("1.25").Add(sizeRatio.Sub(fixed.MustParse("0.05")).MulInt(3))
	default:
		return fixed.MustParse("1.7").Add(sizeRatio.Sub(fixed.MustParse("0.20")).MulInt(2))
	}
}

func (m *Model) VolatilityFactor(volatility fixed.Point) fixed.Point {
	if !volatility.IsPos() {
		return fixed.One
	}

	factor := fixed.One.Add(volatility.Mul(volatilityScale))
	return fixed.Clamp(factor, fixed.One, maxVolatilityFactor)
}

// TimeFactor applies an off-hours widening. Peak hours 9-17 are neutral,
// shoulders 6-9 and 17-21 add 10%, the rest of the day adds 20%.
func (m *Model) TimeFactor(ts time.Time) fixed.Point {
	if ts.IsZero() {
		ts = time.Now()
	}

	hour := ts.Hour()
	switch {
	case hour >= 9 && hour <= 17:
		return fixed.One
	case (hour >= 6 && hour < 9) || (hour > 17 && hour <= 21):
		return fixed.MustParse("1.1")
	default:
		return fixed.MustParse("1.2")
	}
}

// Spread combines the factor estimates into a single decimal spread,
// clamped to the configured bounds.
func (m *Model) Spread(in Input) fixed.Point {
	liquidityFactor := m.LiquidityFactor(in.Liquidity)
	sizeFactor := m.SizeFactor(in.OrderSize, in.Liquidity)
	volatilityFactor := m.VolatilityFactor(in.Volatility)
	timeFactor := m.TimeFactor(in.TimeStamp)

	combined := fixed.One.
		Add(liquidityFactor.Sub(fixed.One).Mul(liquidityWeight)).
		Add(sizeFactor.Sub(fixed.One).Mul(sizeWeight)).
		Add(volatilityFactor.Sub(fixed.One).Mul(volatilityWeight)).
		Add(timeFactor.Sub(fixed.One).Mul(timeWeight))

	return fixed.Clamp(m.cfg.BaseSpread.Mul(combined), m.cfg.MinSpread, m.cfg.MaxSpread)
}

// Breakdown returns the factor decomposition alongside the final spread.
func (m *Model) Breakdown(in Input) Factors {
	return Factors{
		BaseSpread:       m.cfg.BaseSpread,
		LiquidityFactor:  m.LiquidityFactor(in.Liquidity),
		SizeFactor:       m.SizeFactor(in.OrderSize, in.Liquidity),
		VolatilityFactor: m.VolatilityFactor(in.Volatility),
		TimeFactor:       m.TimeFactor(in.TimeStamp),
		TotalSpread:      m.Spread(in),
	}
}

// BidAsk splits the estimated spread symmetrically around the mid price.
func (m *Model) BidAsk(midPrice fixed.Point, in Input) (fixed.Point, fixed.Point) {
	halfSpread := m.Spread(in).Div(fixed.Two)
	bid := midPrice.Mul(fixed.One.Sub(halfSpread))
	ask := midPrice.Mul(fixed.One.Add(halfSpread))
	return bid, ask
}
