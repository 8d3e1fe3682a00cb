package bus

type EventId uint8

const (
	SnapshotEvent EventId = iota
	IntentEvent
	TradeExecutedEvent
	TradeRejectedEvent
	EquityEvent
	BalanceEvent
	PositionOpenEvent
	PositionCloseEvent
	PositionUpdateEvent
)
