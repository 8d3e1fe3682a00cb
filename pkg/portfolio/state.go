package portfolio

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// Snapshot is the serialized portfolio state. Field names are the
// on-disk contract, round-trips must be exact.
type Snapshot struct {
	InitialBalance fixed.Point         `json:"initial_balance"`
	CashBalance    fixed.Point         `json:"cash_balance"`
	RealizedPnL    fixed.Point         `json:"realized_pnl"`
	TotalTrades    int                 `json:"total_trades"`
	Positions      map[string]Position `json:"positions"`
}

func (p *Portfolio) Snapshot() Snapshot {
	positions := make(map[string]Position, len(p.positions))
	for tokenId, position := range p.positions {
		positions[tokenId] = *position
	}
	return Snapshot{
		InitialBalance: p.initialBalance,
		CashBalance:    p.cashBalance,
		RealizedPnL:    p.realizedPnL,
		TotalTrades:    p.totalTrades,
		Positions:      positions,
	}
}

// RestoreSnapshot overwrites the ledger with the saved state.
func (p *Portfolio) RestoreSnapshot(snapshot Snapshot) {
	p.initialBalance = snapshot.InitialBalance
	p.cashBalance = snapshot.CashBalance
	p.realizedPnL = snapshot.RealizedPnL
	p.totalTrades = snapshot.TotalTrades
	p.positions = make(map[string]*Position, len(snapshot.Positions))
	for tokenId, position := range snapshot.Positions {
		restored := position
		p.positions[tokenId] = &restored
	}
}

func (p *Portfolio) SaveState(path string) error {
	data, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal portfolio state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write portfolio state: %w", err)
	}
	return nil
}

// LoadState builds a portfolio from a saved state file. The execution
// model is supplied by the caller, it is not part of the saved state.
func LoadState(path string, model ExecutionModel, logger *zap.Logger, options ...Option) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio state: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal portfolio state: %w", err)
	}

	p := NewPortfolio(snapshot.InitialBalance, model, logger, options...)
	p.RestoreSnapshot(snapshot)
	return p, nil
}
