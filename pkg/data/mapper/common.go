package mapper

import (
	"time"

	"github.com/altrega/paperbroker/pkg/common"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// BinarySnapshot is the packed on-disk record, one file per token.
// Field order matters, it mirrors the file layout.
type BinarySnapshot struct {
	TimeStamp  int64
	Mid        float64
	Bid        float64
	Ask        float64
	Spread     float64
	Liquidity  float64
	Volume24h  float64
	Volatility float64
}

func (binarySnapshot BinarySnapshot) ToMarketSnapshot(marketId, tokenId string, snapshot *common.MarketSnapshot) {
	snapshot.MarketId = marketId
	snapshot.TokenId = tokenId
	snapshot.TimeStamp = time.Unix(0, binarySnapshot.TimeStamp)
	snapshot.Conditions = common.MarketConditions{
		MidPrice:   fixed.FromFloat64(binarySnapshot.Mid),
		BidPrice:   fixed.FromFloat64(binarySnapshot.Bid),
		AskPrice:   fixed.FromFloat64(binarySnapshot.Ask),
		Spread:     fixed.FromFloat64(binarySnapshot.Spread),
		Liquidity:  fixed.FromFloat64(binarySnapshot.Liquidity),
		Volume24h:  fixed.FromFloat64(binarySnapshot.Volume24h),
		Volatility: fixed.FromFloat64(binarySnapshot.Volatility),
	}
}
