package portfolio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/execution"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

func createLegacyPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	return NewPortfolio(fixed.FromInt(1000, 0), NewFixedSlippageModel(), zap.NewNop())
}

func createSimulatedPortfolio(t *testing.T, seed int64) *Portfolio {
	t.Helper()
	simulator := execution.NewSimulator(execution.DefaultConfig(), zap.NewNop(), execution.WithSeed(seed))
	return NewPortfolio(fixed.FromInt(1000, 0), NewSimulatedFillModel(simulator), zap.NewNop())
}

func buyRequest(tokenId, price, sizePct string) TradeRequest {
	return TradeRequest{
		MarketId: "market-1",
		TokenId:  tokenId,
		Side:     common.SideBuy,
		Price:    fixed.MustParse(price),
		SizePct:  fixed.MustParse(sizePct),
	}
}

func sellRequest(tokenId, price, sizePct string) TradeRequest {
	req := buyRequest(tokenId, price, sizePct)
	req.Side = common.SideSell
	return req
}

func TestPortfolio_LegacyBuy(t *testing.T) {
	p := createLegacyPortfolio(t)

	position, result, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
	require.NoError(t, err)
	require.NotNil(t, position)

	// $100 at 0.5 plus 0.1% slippage buys just under 200 units.
	quantity, _ := result.TotalQuantity.Float64()
	assert.InDelta(t, 199.8, quantity, 0.01)

	cash, _ := p.CashBalance().Float64()
	assert.InDelta(t, 900.0, cash, 0.01)

	assert.Equal(t, 1, p.TotalTrades())
	assert.True(t, position.EntryPrice.Eq(fixed.MustParse("0.5005")), "got %s", position.EntryPrice.String())
}

func TestPortfolio_LegacySellRealizesPnL(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
	require.NoError(t, err)

	// Price doubles, sell everything.
	_, result, err := p.ExecuteSimulatedTrade(sellRequest("token-1", "0.9", "1"))
	require.NoError(t, err)
	assert.True(t, result.TotalQuantity.IsPos())

	_, stillOpen := p.Position("token-1")
	assert.False(t, stillOpen, "full sell removes the position")
	assert.True(t, p.RealizedPnL().IsPos(), "got %s", p.RealizedPnL().String())
	assert.Equal(t, 2, p.TotalTrades())
}

func TestPortfolio_SellWithoutPosition(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(sellRequest("token-1", "0.5", "1"))
	assert.True(t, errors.Is(err, ErrNoPosition))
	assert.Equal(t, 0, p.TotalTrades())
}

func TestPortfolio_InsufficientFunds(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "1.5"))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	cash, _ := p.CashBalance().Float64()
	assert.InDelta(t, 1000.0, cash, 1e-9, "rejected trades must not mutate state")
	assert.Equal(t, 0, p.TotalTrades())
}

func TestPortfolio_CostBasisMerging(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.4", "0.1"))
	require.NoError(t, err)
	_, _, err = p.ExecuteSimulatedTrade(buyRequest("token-1", "0.6", "0.1"))
	require.NoError(t, err)

	position, ok := p.Position("token-1")
	require.True(t, ok)

	// The invariant after any merge sequence.
	expected := position.EntryValue.Div(position.Quantity)
	assert.True(t, position.EntryPrice.Sub(expected).Abs().Lt(common.Epsilon),
		"entry price %s != entry value / quantity %s", position.EntryPrice.String(), expected.String())

	assert.True(t, position.EntryPrice.Gt(fixed.MustParse("0.4")))
	assert.True(t, position.EntryPrice.Lt(fixed.MustParse("0.6")))
	assert.Equal(t, 2, p.TotalTrades())
}

func TestPortfolio_PartialSellProratesEntryCost(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
	require.NoError(t, err)

	positionBefore, _ := p.Position("token-1")

	_, _, err = p.ExecuteSimulatedTrade(sellRequest("token-1", "0.5", "0.5"))
	require.NoError(t, err)

	position, ok := p.Position("token-1")
	require.True(t, ok, "half sell keeps the position")

	halfQuantity := positionBefore.Quantity.Div(fixed.Two)
	assert.True(t, position.Quantity.Eq(halfQuantity), "got %s", position.Quantity.String())

	expected := position.EntryValue.Div(position.Quantity)
	assert.True(t, position.EntryPrice.Sub(expected).Abs().Lt(common.Epsilon), "cost basis must stay consistent")
}

func TestPortfolio_ClosePositionAlwaysRemoves(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		p := createSimulatedPortfolio(t, seed)

		_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
		require.NoError(t, err)
		if _, ok := p.Position("token-1"); !ok {
			continue
		}

		_, _, err = p.ClosePosition("token-1", fixed.MustParse("0.55"), nil)
		require.NoError(t, err)

		_, stillOpen := p.Position("token-1")
		assert.False(t, stillOpen, "seed %d: close must remove the position even on a partial fill", seed)
	}
}

func TestPortfolio_UpdatePositionPrices(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
	require.NoError(t, err)

	p.UpdatePositionPrices(map[string]fixed.Point{
		"token-1": fixed.MustParse("0.6"),
		"unknown": fixed.MustParse("0.9"),
	})

	position, ok := p.Position("token-1")
	require.True(t, ok)
	assert.True(t, position.CurrentPrice.Eq(fixed.MustParse("0.6")))
	assert.True(t, position.UnrealizedPnL.IsPos(), "mark above entry must show a gain")
}

func TestPortfolio_TotalValueAccounting(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, result, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.2"))
	require.NoError(t, err)

	// Before any mark move, total value equals initial minus nothing:
	// cash went down by cost, position came in at cost.
	expected := fixed.FromInt(1000, 0).Sub(result.TotalCost).Add(result.TotalCost)
	assert.True(t, p.TotalValue().Eq(expected), "got %s", p.TotalValue().String())

	summary := p.Summary()
	assert.Equal(t, 1, summary.NumOpenPositions)
	assert.True(t, summary.CashBalance.Eq(p.CashBalance()))
}

func TestPortfolio_FullSizeBuyNeverOverdraws(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		p := createSimulatedPortfolio(t, seed)

		position, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "1"))
		require.NoError(t, err)

		assert.False(t, p.CashBalance().IsNeg(),
			"seed %d: cash went negative: %s", seed, p.CashBalance().String())
		if position != nil {
			assert.True(t, p.CashBalance().Add(position.EntryValue).Lte(fixed.FromInt(1000, 0)),
				"seed %d: booked cost exceeds the starting balance", seed)
		}
	}
}

func TestPortfolio_Solvency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		simulator := execution.NewSimulator(execution.DefaultConfig(), zap.NewNop(),
			execution.WithSeed(rapid.Int64().Draw(t, "seed")))
		p := NewPortfolio(fixed.FromInt(1000, 0), NewSimulatedFillModel(simulator), zap.NewNop())

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			price := fixed.FromFloat64(rapid.Float64Range(0.05, 0.95).Draw(t, "price"))
			sizePct := fixed.FromFloat64(rapid.Float64Range(0.01, 1.0).Draw(t, "sizePct"))

			var req TradeRequest
			if rapid.Bool().Draw(t, "isBuy") {
				req = TradeRequest{TokenId: "token-1", Side: common.SideBuy, Price: price, SizePct: sizePct}
			} else {
				req = TradeRequest{TokenId: "token-1", Side: common.SideSell, Price: price, SizePct: sizePct}
			}

			_, _, err := p.ExecuteSimulatedTrade(req)
			if err != nil && !errors.Is(err, ErrInsufficientFunds) && !errors.Is(err, ErrNoPosition) {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.CashBalance().IsNeg() {
				t.Fatalf("cash balance went negative: %s", p.CashBalance().String())
			}
			for _, position := range p.OpenPositions() {
				if !position.Quantity.IsPos() {
					t.Fatalf("non-positive position quantity: %s", position.Quantity.String())
				}
			}
		}
	})
}

func TestPortfolio_StateRoundTrip(t *testing.T) {
	p := createLegacyPortfolio(t)

	_, _, err := p.ExecuteSimulatedTrade(buyRequest("token-1", "0.5", "0.1"))
	require.NoError(t, err)
	_, _, err = p.ExecuteSimulatedTrade(buyRequest("token-2", "0.3", "0.1"))
	require.NoError(t, err)
	_, _, err = p.ExecuteSimulatedTrade(sellRequest("token-2", "0.4", "1"))
	require.NoError(t, err)

	path := t.TempDir() + "/portfolio.json"
	require.NoError(t, p.SaveState(path))

	restored, err := LoadState(path, NewFixedSlippageModel(), zap.NewNop())
	require.NoError(t, err)

	assert.True(t, restored.CashBalance().Eq(p.CashBalance()))
	assert.True(t, restored.RealizedPnL().Eq(p.RealizedPnL()))
	assert.Equal(t, p.TotalTrades(), restored.TotalTrades())
	assert.Len(t, restored.OpenPositions(), 1)

	original, _ := p.Position("token-1")
	loaded, ok := restored.Position("token-1")
	require.True(t, ok)
	assert.True(t, loaded.Quantity.Eq(original.Quantity))
	assert.True(t, loaded.EntryPrice.Eq(original.EntryPrice))
	assert.True(t, loaded.EntryValue.Eq(original.EntryValue))
}
