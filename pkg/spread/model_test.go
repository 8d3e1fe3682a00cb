package spread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

var peakHour = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func TestModel_LiquidityFactor(t *testing.T) {
	m := NewModel(DefaultConfig())

	tests := []struct {
		name      string
		liquidity string
		check     func(t *testing.T, factor fixed.Point)
	}{
		{
			name:      "reference liquidity is neutral",
			liquidity: "10000",
			check: func(t *testing.T, factor fixed.Point) {
				assert.True(t, factor.Eq(fixed.One), "got %s", factor.String())
			},
		},
		{
			name:      "zero liquidity saturates",
			liquidity: "0",
			check: func(t *testing.T, factor fixed.Point) {
				assert.True(t, factor.Eq(fixed.FromInt(3, 0)), "got %s", factor.String())
			},
		},
		{
			name:      "deep liquidity tightens below one",
			liquidity: "100000",
			check: func(t *testing.T, factor fixed.Point) {
				assert.True(t, factor.Lt(fixed.One), "got %s", factor.String())
				assert.True(t, factor.Gte(fixed.Half), "got %s", factor.String())
			},
		},
		{
			name:      "dust liquidity saturates like an empty book",
			liquidity: "0.0000000000000000139",
			check: func(t *testing.T, factor fixed.Point) {
				assert.True(t, factor.Eq(fixed.FromInt(3, 0)), "got %s", factor.String())
			},
		},
		{
			name:      "thin liquidity widens above one",
			liquidity: "500",
			check: func(t *testing.T, factor fixed.Point) {
				assert.True(t, factor.Gt(fixed.One), "got %s", factor.String())
				assert.True(t, factor.Lte(fixed.FromInt(3, 0)), "got %s", factor.String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, m.LiquidityFactor(fixed.MustParse(tt.liquidity)))
		})
	}
}

func TestModel_SizeFactor(t *testing.T) {
	m := NewModel(DefaultConfig())
	liquidity := fixed.FromInt(10000, 0)

	tests := []struct {
		name      string
		orderSize string
		expected  string
	}{
		{"tiny order is neutral", "50", "1"},
		{"moderate order ramps linearly", "300", "1.15"},
		{"large order hits the second tier", "1000", "1.4"},
		{"oversized order hits the top tier", "3000", "1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor := m.SizeFactor(fixed.MustParse(tt.orderSize), liquidity)
			assert.True(t, factor.Eq(fixed.MustParse(tt.expected)),
				"got %s, want %s", factor.String(), tt.expected)
		})
	}

	t.Run("zero liquidity defaults to two", func(t *testing.T) {
		factor := m.SizeFactor(fixed.FromInt(100, 0), fixed.Zero)
		assert.True(t, factor.Eq(fixed.Two), "got %s", factor.String())
	})

	t.Run("dust liquidity caps the ratio", func(t *testing.T) {
		factor := m.SizeFactor(fixed.FromInt(139, 0), fixed.MustParse("0.0000000000000000139"))
		// Ratio capped at 100: 1.7 + (100 - 0.20) * 2.
		assert.True(t, factor.Eq(fixed.MustParse("201.3")), "got %s", factor.String())
	})
}

func TestModel_VolatilityFactor(t *testing.T) {
	m := NewModel(DefaultConfig())

	assert.True(t, m.VolatilityFactor(fixed.Zero).Eq(fixed.One))
	assert.True(t, m.VolatilityFactor(fixed.MustParse("0.05")).Eq(fixed.MustParse("1.5")))
	assert.True(t, m.VolatilityFactor(fixed.One).Eq(fixed.FromInt(3, 0)), "extreme volatility must clamp")
}

func TestModel_TimeFactor(t *testing.T) {
	m := NewModel(DefaultConfig())

	tests := []struct {
		hour     int
		expected string
	}{
		{12, "1"},
		{7, "1.1"},
		{19, "1.1"},
		{3, "1.2"},
		{23, "1.2"},
	}

	for _, tt := range tests {
		ts := time.Date(2025, 6, 2, tt.hour, 0, 0, 0, time.UTC)
		factor := m.TimeFactor(ts)
		assert.True(t, factor.Eq(fixed.MustParse(tt.expected)),
			"hour %d: got %s, want %s", tt.hour, factor.String(), tt.expected)
	}
}

func TestModel_SpreadBounds(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)

	rapid.Check(t, func(t *rapid.T) {
		in := Input{
			Liquidity:  fixed.FromFloat64(rapid.Float64Range(0, 1e6).Draw(t, "liquidity")),
			Volume24h:  fixed.FromFloat64(rapid.Float64Range(0, 1e6).Draw(t, "volume")),
			OrderSize:  fixed.FromFloat64(rapid.Float64Range(0, 1e5).Draw(t, "orderSize")),
			Volatility: fixed.FromFloat64(rapid.Float64Range(0, 2).Draw(t, "volatility")),
			TimeStamp:  peakHour,
		}

		estimate := m.Spread(in)
		if estimate.Lt(cfg.MinSpread) || estimate.Gt(cfg.MaxSpread) {
			t.Fatalf("spread %s outside [%s, %s]", estimate.String(), cfg.MinSpread.String(), cfg.MaxSpread.String())
		}
	})
}

func TestModel_SpreadWidensWithThinnerLiquidity(t *testing.T) {
	m := NewModel(DefaultConfig())

	base := Input{OrderSize: fixed.FromInt(100, 0), TimeStamp: peakHour}

	thin := base
	thin.Liquidity = fixed.FromInt(500, 0)
	deep := base
	deep.Liquidity = fixed.FromInt(50000, 0)

	assert.True(t, m.Spread(thin).Gt(m.Spread(deep)),
		"thin %s should exceed deep %s", m.Spread(thin).String(), m.Spread(deep).String())
}

func TestModel_BidAskBracketsMid(t *testing.T) {
	m := NewModel(DefaultConfig())
	mid := fixed.Half

	bid, ask := m.BidAsk(mid, Input{
		Liquidity: fixed.FromInt(5000, 0),
		OrderSize: fixed.FromInt(100, 0),
		TimeStamp: peakHour,
	})

	assert.True(t, bid.Lt(mid), "bid %s must be below mid", bid.String())
	assert.True(t, ask.Gt(mid), "ask %s must be above mid", ask.String())
}

func TestModel_Breakdown(t *testing.T) {
	m := NewModel(DefaultConfig())

	in := Input{
		Liquidity: fixed.FromInt(10000, 0),
		OrderSize: fixed.FromInt(50, 0),
		TimeStamp: peakHour,
	}

	factors := m.Breakdown(in)
	assert.True(t, factors.BaseSpread.Eq(fixed.MustParse("0.005")))
	assert.True(t, factors.LiquidityFactor.Eq(fixed.One))
	assert.True(t, factors.SizeFactor.Eq(fixed.One))
	assert.True(t, factors.VolatilityFactor.Eq(fixed.One))
	assert.True(t, factors.TimeFactor.Eq(fixed.One))
	assert.True(t, factors.TotalSpread.Eq(m.Spread(in)))
}
