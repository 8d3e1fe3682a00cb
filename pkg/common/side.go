package common

import (
	"fmt"
)

type Side int
type OrderType int

const (
	SideBuy Side = iota
	SideSell
)

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(data []byte) error {
	switch string(data) {
	case "BUY":
		*s = SideBuy
	case "SELL":
		*s = SideSell
	default:
		return fmt.Errorf("unknown side: %q", data)
	}
	return nil
}

func (t OrderType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *OrderType) UnmarshalText(data []byte) error {
	switch string(data) {
	case "market":
		*t = OrderTypeMarket
	case "limit":
		*t = OrderTypeLimit
	default:
		return fmt.Errorf("unknown order type: %q", data)
	}
	return nil
}
