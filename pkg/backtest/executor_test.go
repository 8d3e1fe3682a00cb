package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/altrega/paperbroker/pkg/bus"
	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/execution"
	"github.com/altrega/paperbroker/pkg/orderqueue"
	"github.com/altrega/paperbroker/pkg/portfolio"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type sliceSource struct {
	snapshots []common.MarketSnapshot
	index     int
	err       error
}

func (s *sliceSource) Next() (common.MarketSnapshot, error) {
	if s.index >= len(s.snapshots) {
		return common.MarketSnapshot{}, s.err
	}
	snapshot := s.snapshots[s.index]
	s.index++
	return snapshot, nil
}

var errSourceDrained = assert.AnError

func snapshotAt(n int, mid string) common.MarketSnapshot {
	midPrice := fixed.MustParse(mid)
	return common.MarketSnapshot{
		MarketId:  "market-1",
		TokenId:   "token-1",
		TimeStamp: day(0).Add(time.Duration(n) * time.Hour),
		Conditions: common.ConditionsFromPrice(midPrice, fixed.MustParse("0.02"),
			fixed.FromInt(50000, 0), fixed.FromInt(100000, 0), fixed.Zero),
	}
}

func createTestExecutor(t *testing.T, source SnapshotSource, strategy Strategy) (*Executor, *portfolio.Portfolio, *Audit) {
	t.Helper()

	logger := zap.NewNop()
	simulator := execution.NewSimulator(execution.DefaultConfig(), logger, execution.WithSeed(42))
	pf := portfolio.NewPortfolio(fixed.FromInt(1000, 0), portfolio.NewSimulatedFillModel(simulator), logger)
	queue := orderqueue.NewQueue(simulator, logger)
	audit := NewAudit(time.Minute)
	router := bus.NewRouter(1000)

	return NewExecutor(logger, router, source, strategy, pf, queue, audit), pf, audit
}

func TestExecutor_FeedReturnsSourceError(t *testing.T) {
	source := &sliceSource{err: errSourceDrained}
	executor, _, _ := createTestExecutor(t, source, func(ctx context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent {
		return nil
	})

	err := executor.Feed(context.Background())
	assert.ErrorIs(t, err, errSourceDrained)
}

func TestExecutor_ExecutesStrategyIntents(t *testing.T) {
	source := &sliceSource{
		snapshots: []common.MarketSnapshot{snapshotAt(0, "0.40")},
		err:       errSourceDrained,
	}

	strategy := func(ctx context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent {
		return []common.TradeIntent{{
			MarketId:  snapshot.MarketId,
			TokenId:   snapshot.TokenId,
			Side:      common.SideBuy,
			Price:     snapshot.Conditions.MidPrice,
			SizePct:   fixed.MustParse("0.1"),
			TimeStamp: snapshot.TimeStamp,
		}}
	}

	executor, pf, audit := createTestExecutor(t, source, strategy)

	require.NoError(t, executor.Feed(context.Background()))

	position, ok := pf.Position("token-1")
	require.True(t, ok, "buy intent should open a position")
	assert.True(t, position.Quantity.IsPos())
	assert.True(t, pf.CashBalance().Lt(fixed.FromInt(1000, 0)))

	assert.Len(t, audit.accountSnapshots, 1, "each fed snapshot records the account state")
}

func TestExecutor_RecordsClosedTrades(t *testing.T) {
	source := &sliceSource{
		snapshots: []common.MarketSnapshot{
			snapshotAt(0, "0.40"),
			snapshotAt(1, "0.60"),
		},
		err: errSourceDrained,
	}

	strategy := func(ctx context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent {
		_, held := pf.Position(snapshot.TokenId)
		if !held {
			return []common.TradeIntent{{
				TokenId: snapshot.TokenId,
				Side:    common.SideBuy,
				Price:   snapshot.Conditions.MidPrice,
				SizePct: fixed.MustParse("0.1"),
			}}
		}
		return []common.TradeIntent{{
			TokenId: snapshot.TokenId,
			Side:    common.SideSell,
			Price:   snapshot.Conditions.MidPrice,
			SizePct: fixed.One,
		}}
	}

	executor, pf, audit := createTestExecutor(t, source, strategy)

	require.NoError(t, executor.Feed(context.Background()))
	require.NoError(t, executor.Feed(context.Background()))

	if _, held := pf.Position("token-1"); !held {
		require.Len(t, audit.closedTrades, 1)
		closed := audit.closedTrades[0]
		assert.Equal(t, "token-1", closed.TokenId)
		assert.True(t, closed.NetProfit.IsPos(), "selling into a higher mid should realize a gain")
	}
}

func TestExecutor_UpdatesMarksBetweenSnapshots(t *testing.T) {
	source := &sliceSource{
		snapshots: []common.MarketSnapshot{
			snapshotAt(0, "0.40"),
			snapshotAt(1, "0.60"),
		},
		err: errSourceDrained,
	}

	bought := false
	strategy := func(ctx context.Context, snapshot common.MarketSnapshot, pf *portfolio.Portfolio) []common.TradeIntent {
		if bought {
			return nil
		}
		bought = true
		return []common.TradeIntent{{
			TokenId: snapshot.TokenId,
			Side:    common.SideBuy,
			Price:   snapshot.Conditions.MidPrice,
			SizePct: fixed.MustParse("0.1"),
		}}
	}

	executor, pf, _ := createTestExecutor(t, source, strategy)

	require.NoError(t, executor.Feed(context.Background()))
	require.NoError(t, executor.Feed(context.Background()))

	position, ok := pf.Position("token-1")
	require.True(t, ok)
	assert.True(t, position.CurrentPrice.Eq(fixed.MustParse("0.60")), "got %s", position.CurrentPrice.String())
	assert.True(t, position.UnrealizedPnL.IsPos())
}
