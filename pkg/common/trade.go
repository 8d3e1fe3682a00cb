package common

import (
	"time"

	"github.com/altrega/paperbroker/pkg/utility"
	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

// MarketSnapshot carries one tick of market conditions for a token.
type MarketSnapshot struct {
	MarketId   string           `json:"market_id"`
	TokenId    string           `json:"token_id"`
	Conditions MarketConditions `json:"conditions"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// TradeIntent is a strategy's request to trade, sized as a fraction of
// available capital (buy) or of the held position (sell).
type TradeIntent struct {
	MarketId string      `json:"market_id"`
	TokenId  string      `json:"token_id"`
	Question string      `json:"question,omitempty"`
	Outcome  string      `json:"outcome,omitempty"`
	Side     Side        `json:"side"`
	Price    fixed.Point `json:"price"`
	SizePct  fixed.Point `json:"size_pct"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type TradeExecuted struct {
	TokenId string          `json:"token_id"`
	Side    Side            `json:"side"`
	Result  ExecutionResult `json:"result"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type TradeRejected struct {
	OriginalIntent TradeIntent `json:"original_intent"`
	Reason         string      `json:"reason,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type PositionUpdate struct {
	TokenId       string      `json:"token_id"`
	Quantity      fixed.Point `json:"quantity"`
	EntryPrice    fixed.Point `json:"entry_price"`
	CurrentPrice  fixed.Point `json:"current_price"`
	UnrealizedPnL fixed.Point `json:"unrealized_pnl"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type Equity struct {
	Value fixed.Point `json:"value"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type Balance struct {
	Value fixed.Point `json:"value"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
