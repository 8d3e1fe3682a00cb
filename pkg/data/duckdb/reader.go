// Package duckdb streams historical market snapshots out of a duckdb
// database, one table per token.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadSnapshots streams rows from the token's snapshot table between
// from and to, in time order, and passes each one to handler. A
// handler error stops the stream.
func (r *Reader) LoadSnapshots(ctx context.Context, marketId, tokenId string, from, to time.Time, handler func(snapshot common.MarketSnapshot) error) error {

	query := fmt.Sprintf(`SELECT ts, mid, bid, ask, spread, liquidity, volume_24h, volatility FROM %s_snapshots WHERE ts BETWEEN ? AND ? ORDER BY ts`, tokenId)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}(rows)

	for rows.Next() {
		var (
			timeStamp                                         time.Time
			mid, bid, ask, spread, liquidity, vol, volatility float64
		)
		if err := rows.Scan(&timeStamp, &mid, &bid, &ask, &spread, &liquidity, &vol, &volatility); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		snapshot := common.MarketSnapshot{
			MarketId:  marketId,
			TokenId:   tokenId,
			TimeStamp: timeStamp,
			Conditions: common.MarketConditions{
				MidPrice:   fixed.FromFloat64(mid),
				BidPrice:   fixed.FromFloat64(bid),
				AskPrice:   fixed.FromFloat64(ask),
				Spread:     fixed.FromFloat64(spread),
				Liquidity:  fixed.FromFloat64(liquidity),
				Volume24h:  fixed.FromFloat64(vol),
				Volatility: fixed.FromFloat64(volatility),
			},
		}
		if err := handler(snapshot); err != nil {
			return fmt.Errorf("error processing snapshot: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}
