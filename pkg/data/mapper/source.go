package mapper

import (
	"github.com/altrega/paperbroker/pkg/common"
)

// Source adapts a binary snapshot file to a sequential snapshot feed.
// Files hold one token each, so the market and token ids are fixed at
// construction.
type Source struct {
	reader   *Reader[BinarySnapshot]
	marketId string
	tokenId  string
	index    int64
}

func NewSource(reader *Reader[BinarySnapshot], marketId, tokenId string) *Source {
	return &Source{
		reader:   reader,
		marketId: marketId,
		tokenId:  tokenId,
	}
}

// Next returns the next snapshot in file order, or ErrEof when the
// file is exhausted.
func (s *Source) Next() (common.MarketSnapshot, error) {
	var record BinarySnapshot
	if err := s.reader.Read(s.index, &record); err != nil {
		return common.MarketSnapshot{}, err
	}
	s.index++

	var snapshot common.MarketSnapshot
	record.ToMarketSnapshot(s.marketId, s.tokenId, &snapshot)
	return snapshot, nil
}
