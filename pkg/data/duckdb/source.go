package duckdb

import (
	"context"
	"errors"
	"time"

	"github.com/altrega/paperbroker/pkg/common"
)

var ErrEof = errors.New("EOF")

// Source drains a token's snapshot table into memory once and replays
// the rows in time order.
type Source struct {
	snapshots []common.MarketSnapshot
	index     int
}

func NewSource(ctx context.Context, reader *Reader, marketId, tokenId string, from, to time.Time) (*Source, error) {
	source := &Source{}
	err := reader.LoadSnapshots(ctx, marketId, tokenId, from, to, func(snapshot common.MarketSnapshot) error {
		source.snapshots = append(source.snapshots, snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (s *Source) EntryCount() int {
	return len(s.snapshots)
}

func (s *Source) Next() (common.MarketSnapshot, error) {
	if s.index >= len(s.snapshots) {
		return common.MarketSnapshot{}, ErrEof
	}

	snapshot := s.snapshots[s.index]
	s.index++
	return snapshot, nil
}
