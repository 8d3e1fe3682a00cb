package portfolio

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

var (
	// Expected business outcomes in a simulation loop, matched with
	// errors.Is by strategy callers.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPosition        = errors.New("no position for token")
)

// Conditions defaults when the caller supplies only a price.
var (
	defaultLiquidity = fixed.FromInt(5000, 0)
	defaultVolume24h = fixed.FromInt(10000, 0)
	defaultSpread    = fixed.MustParse("0.02")
)

// TradeRequest describes one trade intent. SizePct sizes a buy as a
// fraction of cash and a sell as a fraction of the held position.
// Conditions, Liquidity and Volume24h are optional, defaults apply.
type TradeRequest struct {
	MarketId   string
	TokenId    string
	Question   string
	Outcome    string
	Side       common.Side
	Price      fixed.Point
	SizePct    fixed.Point
	TradeId    int64
	Conditions *common.MarketConditions
	Liquidity  fixed.Point
	Volume24h  fixed.Point
}

// Portfolio is the single mutator of cash and positions. Not safe for
// concurrent use, callers serialize externally.
type Portfolio struct {
	logger *zap.Logger
	model  ExecutionModel
	clock  func() time.Time

	initialBalance fixed.Point
	cashBalance    fixed.Point
	positions      map[string]*Position
	realizedPnL    fixed.Point
	totalTrades    int
}

func NewPortfolio(initialBalance fixed.Point, model ExecutionModel, logger *zap.Logger, options ...Option) *Portfolio {
	p := &Portfolio{
		logger:         logger,
		model:          model,
		clock:          time.Now,
		initialBalance: initialBalance,
		cashBalance:    initialBalance,
		positions:      make(map[string]*Position),
		realizedPnL:    fixed.Zero,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

func (p *Portfolio) InitialBalance() fixed.Point { return p.initialBalance }
func (p *Portfolio) CashBalance() fixed.Point    { return p.cashBalance }
func (p *Portfolio) RealizedPnL() fixed.Point    { return p.realizedPnL }
func (p *Portfolio) TotalTrades() int            { return p.totalTrades }

func (p *Portfolio) Position(tokenId string) (Position, bool) {
	if position, ok := p.positions[tokenId]; ok {
		return *position, true
	}
	return Position{}, false
}

func (p *Portfolio) OpenPositions() []Position {
	positions := make([]Position, 0, len(p.positions))
	for _, position := range p.positions {
		positions = append(positions, *position)
	}
	return positions
}

func (p *Portfolio) PositionsValue() fixed.Point {
	total := fixed.Zero
	for _, position := range p.positions {
		total = total.Add(position.CurrentValue)
	}
	return total
}

func (p *Portfolio) TotalValue() fixed.Point {
	return p.cashBalance.Add(p.PositionsValue())
}

func (p *Portfolio) UnrealizedPnL() fixed.Point {
	total := fixed.Zero
	for _, position := range p.positions {
		total = total.Add(position.UnrealizedPnL)
	}
	return total
}

func (p *Portfolio) TotalPnL() fixed.Point {
	return p.realizedPnL.Add(p.UnrealizedPnL())
}

func (p *Portfolio) TotalReturnPct() fixed.Point {
	if !p.initialBalance.IsPos() {
		return fixed.Zero
	}
	return p.TotalValue().Sub(p.initialBalance).Div(p.initialBalance).Mul(fixed.Hundred)
}

// ExecuteSimulatedTrade runs one trade through the execution model and
// applies the result to the ledger. Infeasible trades return a sentinel
// error with no state mutated.
func (p *Portfolio) ExecuteSimulatedTrade(req TradeRequest) (*Position, common.ExecutionResult, error) {
	conditions := p.resolveConditions(req)

	switch req.Side {
	case common.SideBuy:
		return p.executeBuy(req, conditions)
	case common.SideSell:
		result, err := p.executeSell(req, conditions)
		return nil, result, err
	default:
		return nil, common.ExecutionResult{}, errors.New("invalid trade side")
	}
}

func (p *Portfolio) executeBuy(req TradeRequest, conditions common.MarketConditions) (*Position, common.ExecutionResult, error) {
	tradeAmount := p.cashBalance.Mul(req.SizePct)

	if tradeAmount.Gt(p.cashBalance) {
		p.logger.Debug("buy rejected",
			zap.String("token_id", req.TokenId),
			zap.String("required", tradeAmount.String()),
			zap.String("available", p.cashBalance.String()),
		)
		return nil, common.ExecutionResult{}, ErrInsufficientFunds
	}

	result := p.model.Buy(tradeAmount, conditions)
	if !result.TotalQuantity.IsPos() {
		return nil, result, nil
	}

	finalPrice := result.AveragePrice
	quantity := result.TotalQuantity
	finalCost := result.TotalCost

	// Slippage can push the simulated cost past the sized amount. The
	// booked cost is capped there and the quantity scaled to match, so
	// the ledger never overdraws.
	if finalCost.Gt(tradeAmount) {
		quantity = quantity.Mul(tradeAmount.Div(finalCost))
		finalCost = tradeAmount
	}

	p.cashBalance = p.cashBalance.Sub(finalCost)

	position, ok := p.positions[req.TokenId]
	if ok {
		// Merge into the volume-weighted cost basis.
		totalQuantity := position.Quantity.Add(quantity)
		totalValue := position.EntryValue.Add(finalCost)
		position.Quantity = totalQuantity
		position.EntryValue = totalValue
		position.EntryPrice = totalValue.Div(totalQuantity)
		position.UpdateValuation(position.CurrentPrice)
	} else {
		position = &Position{
			MarketId:     req.MarketId,
			TokenId:      req.TokenId,
			Question:     req.Question,
			Outcome:      req.Outcome,
			Side:         common.SideBuy,
			EntryPrice:   finalPrice,
			Quantity:     quantity,
			EntryValue:   finalCost,
			EntryTime:    p.clock(),
			TradeId:      req.TradeId,
			CurrentPrice: finalPrice,
			CurrentValue: finalCost,
		}
		p.positions[req.TokenId] = position
	}

	p.totalTrades++

	p.logger.Debug("buy executed",
		zap.String("token_id", req.TokenId),
		zap.String("quantity", quantity.String()),
		zap.String("price", finalPrice.String()),
		zap.String("cash_balance", p.cashBalance.String()),
	)

	snapshot := *position
	return &snapshot, result, nil
}

func (p *Portfolio) executeSell(req TradeRequest, conditions common.MarketConditions) (common.ExecutionResult, error) {
	position, ok := p.positions[req.TokenId]
	if !ok {
		return common.ExecutionResult{}, ErrNoPosition
	}

	sellQuantity := position.Quantity.Mul(req.SizePct)
	result := p.model.Sell(sellQuantity, conditions)
	if !result.TotalQuantity.IsPos() {
		return result, nil
	}

	soldQuantity := result.TotalQuantity
	sellValue := result.TotalCost

	entryCostForSold := soldQuantity.Div(position.Quantity).Mul(position.EntryValue)
	realized := sellValue.Sub(entryCostForSold)
	p.realizedPnL = p.realizedPnL.Add(realized)
	p.cashBalance = p.cashBalance.Add(sellValue)

	remaining := position.Quantity.Sub(soldQuantity)
	if remaining.Lt(common.Epsilon) {
		delete(p.positions, req.TokenId)
	} else {
		position.Quantity = remaining
		position.EntryValue = position.EntryValue.Sub(entryCostForSold)
		position.UpdateValuation(position.CurrentPrice)
	}

	p.totalTrades++

	p.logger.Debug("sell executed",
		zap.String("token_id", req.TokenId),
		zap.String("quantity", soldQuantity.String()),
		zap.String("realized", realized.String()),
		zap.String("cash_balance", p.cashBalance.String()),
	)

	return result, nil
}

// ClosePosition liquidates the entire position. The remainder of any
// partial fill is booked out at the same average price so the row is
// always removed. Returns the realized P&L of the closure.
func (p *Portfolio) ClosePosition(tokenId string, exitPrice fixed.Point, conditions *common.MarketConditions) (fixed.Point, common.ExecutionResult, error) {
	position, ok := p.positions[tokenId]
	if !ok {
		return fixed.Zero, common.ExecutionResult{}, ErrNoPosition
	}

	cond := p.resolveConditions(TradeRequest{Price: exitPrice, Conditions: conditions})
	result := p.model.Sell(position.Quantity, cond)

	exitPricePerUnit := result.AveragePrice
	if !exitPricePerUnit.IsPos() {
		exitPricePerUnit = exitPrice
	}

	exitValue := position.Quantity.Mul(exitPricePerUnit)
	realized := exitValue.Sub(position.EntryValue)

	p.realizedPnL = p.realizedPnL.Add(realized)
	p.cashBalance = p.cashBalance.Add(exitValue)
	delete(p.positions, tokenId)
	p.totalTrades++

	p.logger.Debug("position closed",
		zap.String("token_id", tokenId),
		zap.String("exit_price", exitPricePerUnit.String()),
		zap.String("realized", realized.String()),
	)

	return realized, result, nil
}

// UpdatePositionPrices refreshes the valuation of every known token in
// the update set. Unknown tokens are ignored.
func (p *Portfolio) UpdatePositionPrices(priceUpdates map[string]fixed.Point) {
	for tokenId, price := range priceUpdates {
		if position, ok := p.positions[tokenId]; ok {
			position.UpdateValuation(price)
		}
	}
}

type Summary struct {
	CashBalance      fixed.Point `json:"cash_balance"`
	PositionsValue   fixed.Point `json:"positions_value"`
	TotalValue       fixed.Point `json:"total_value"`
	RealizedPnL      fixed.Point `json:"realized_pnl"`
	UnrealizedPnL    fixed.Point `json:"unrealized_pnl"`
	TotalPnL         fixed.Point `json:"total_pnl"`
	TotalReturnPct   fixed.Point `json:"total_return_pct"`
	NumOpenPositions int         `json:"num_open_positions"`
	TotalTrades      int         `json:"total_trades"`
}

func (p *Portfolio) Summary() Summary {
	return Summary{
		CashBalance:      p.cashBalance,
		PositionsValue:   p.PositionsValue(),
		TotalValue:       p.TotalValue(),
		RealizedPnL:      p.realizedPnL,
		UnrealizedPnL:    p.UnrealizedPnL(),
		TotalPnL:         p.TotalPnL(),
		TotalReturnPct:   p.TotalReturnPct(),
		NumOpenPositions: len(p.positions),
		TotalTrades:      p.totalTrades,
	}
}

func (p *Portfolio) resolveConditions(req TradeRequest) common.MarketConditions {
	if req.Conditions != nil {
		return *req.Conditions
	}

	liquidity := req.Liquidity
	if liquidity.IsZero() {
		liquidity = defaultLiquidity
	}
	volume := req.Volume24h
	if volume.IsZero() {
		volume = defaultVolume24h
	}

	return common.ConditionsFromPrice(req.Price, defaultSpread, liquidity, volume, fixed.Zero)
}
