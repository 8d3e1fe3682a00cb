package spread

import (
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// PredictionConfig is calibrated for binary-outcome prediction markets,
// which trade wider than the generic defaults.
func PredictionConfig() Config {
	return Config{
		BaseSpread: fixed.MustParse("0.01"),
		MinSpread:  fixed.MustParse("0.002"),
		MaxSpread:  fixed.MustParse("0.15"),
	}
}

// PredictionModel adds a price-proximity adjustment on top of Model:
// spreads widen as the probability price approaches 0 or 1 and tighten
// near the 0.5 midpoint.
type PredictionModel struct {
	Model
}

func NewPredictionModel(cfg Config) *PredictionModel {
	return &PredictionModel{Model: Model{cfg: cfg}}
}

// PriceFactor grows linearly with distance from the 0.5 center, reaching
// 2.0 at either extreme. A zero price input is treated as the midpoint.
func (m *PredictionModel) PriceFactor(price fixed.Point) fixed.Point {
	if price.IsZero() {
		price = fixed.Half
	}
	distance := price.Sub(fixed.Half).Abs()
	return fixed.One.Add(distance.Mul(fixed.Two))
}

func (m *PredictionModel) Spread(in Input) fixed.Point {
	base := m.Model.Spread(in)
	adjusted := base.Mul(m.PriceFactor(in.Price))
	return fixed.Clamp(adjusted, m.cfg.MinSpread, m.cfg.MaxSpread)
}

func (m *PredictionModel) Breakdown(in Input) Factors {
	factors := m.Model.Breakdown(in)
	factors.TotalSpread = m.Spread(in)
	return factors
}

func (m *PredictionModel) BidAsk(midPrice fixed.Point, in Input) (fixed.Point, fixed.Point) {
	halfSpread := m.Spread(in).Div(fixed.Two)
	bid := midPrice.Mul(fixed.One.Sub(halfSpread))
	ask := midPrice.Mul(fixed.One.Add(halfSpread))
	return bid, ask
}
