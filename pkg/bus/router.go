// Package bus is a buffered single-goroutine event router. Events are
// posted without blocking and dispatched in order on the Exec goroutine.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/altrega/paperbroker/pkg/common"
)

type event struct {
	id   EventId
	data interface{}
}

type Router struct {
	// Channels
	done   chan error
	events chan event

	// Handlers
	OnSnapshot       SnapshotEventHandler
	OnIntent         IntentEventHandler
	OnTradeExecuted  TradeExecutedEventHandler
	OnTradeRejected  TradeRejectedEventHandler
	OnEquity         EquityEventHandler
	OnBalance        BalanceEventHandler
	OnPositionOpen   PositionOpenEventHandler
	OnPositionClose  PositionCloseEventHandler
	OnPositionUpdate PositionUpdateEventHandler

	// Statistics
	start         time.Time
	runTime       atomic.Int64
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		done:   make(chan error, 1),
		events: make(chan event, eventCapacity),
	}
}

// Post enqueues an event without blocking. Fails when the buffer is
// full, callers decide whether dropped events are fatal.
func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return errors.New("event capacity reached")
	}
}

// Exec dispatches events until the context is cancelled.
func (r *Router) Exec(ctx context.Context) <-chan error {
	go func() {
		r.resetStatistics()
		defer r.stopClock()

		for {
			select {
			case <-ctx.Done():
				r.done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount.Add(1)
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails.Add(1)
					slog.Warn("dispatch failed", "error", err, "event_id", ev.id)
				}
			}
		}
	}()
	return r.done
}

// ExecLoop interleaves event dispatch with a feed callback invoked
// whenever the queue is drained. The callback error ends the loop,
// which is how a backtest signals end of data.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) <-chan error {
	go func() {
		r.resetStatistics()
		defer r.stopClock()

		for {
			select {
			case <-ctx.Done():
				r.done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount.Add(1)
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails.Add(1)
					slog.Warn("dispatch failed", "error", err, "event_id", ev.id)
				}
			default:
				if err := doOnceCb(); err != nil {
					r.done <- err
					return
				}
			}
		}
	}()
	return r.done
}

func (r *Router) Done() <-chan error {
	return r.done
}

func (r *Router) Statistics() Statistics {
	runTime := time.Duration(r.runTime.Load())
	if runTime == 0 && !r.start.IsZero() {
		runTime = time.Since(r.start)
	}

	throughput := 0.0
	if runTime > 0 {
		throughput = float64(r.postCount.Load()) / runTime.Seconds()
	}

	return Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
		Throughput:    throughput,
	}
}

func (r *Router) PrintStatistics() {
	r.Statistics().Print()
}

func (r *Router) resetStatistics() {
	r.start = time.Now()
	r.runTime.Store(0)
	r.postCount.Store(0)
	r.postFails.Store(0)
	r.dispatchCount.Store(0)
	r.dispatchFails.Store(0)
}

func (r *Router) stopClock() {
	r.runTime.Store(int64(time.Since(r.start)))
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case SnapshotEvent:
		snapshot, ok := ev.data.(common.MarketSnapshot)
		if !ok {
			return errors.New("invalid type assertion for snapshot event")
		}
		if r.OnSnapshot != nil {
			r.OnSnapshot(ctx, snapshot)
		} else {
			slog.Debug("snapshot handler is nil")
		}
	case IntentEvent:
		intent, ok := ev.data.(common.TradeIntent)
		if !ok {
			return errors.New("invalid type assertion for intent event")
		}
		if r.OnIntent != nil {
			r.OnIntent(ctx, intent)
		} else {
			slog.Debug("intent handler is nil")
		}
	case TradeExecutedEvent:
		trade, ok := ev.data.(common.TradeExecuted)
		if !ok {
			return errors.New("invalid type assertion for trade executed event")
		}
		if r.OnTradeExecuted != nil {
			r.OnTradeExecuted(ctx, trade)
		} else {
			slog.Debug("trade executed handler is nil")
		}
	case TradeRejectedEvent:
		rejection, ok := ev.data.(common.TradeRejected)
		if !ok {
			return errors.New("invalid type assertion for trade rejected event")
		}
		if r.OnTradeRejected != nil {
			r.OnTradeRejected(ctx, rejection)
		} else {
			slog.Debug("trade rejected handler is nil")
		}
	case EquityEvent:
		equity, ok := ev.data.(common.Equity)
		if !ok {
			return errors.New("invalid type assertion for equity event")
		}
		if r.OnEquity != nil {
			r.OnEquity(ctx, equity)
		} else {
			slog.Debug("equity handler is nil")
		}
	case BalanceEvent:
		balance, ok := ev.data.(common.Balance)
		if !ok {
			return errors.New("invalid type assertion for balance event")
		}
		if r.OnBalance != nil {
			r.OnBalance(ctx, balance)
		} else {
			slog.Debug("balance handler is nil")
		}
	case PositionOpenEvent:
		position, ok := ev.data.(common.PositionUpdate)
		if !ok {
			return errors.New("invalid type assertion for position open event")
		}
		if r.OnPositionOpen != nil {
			r.OnPositionOpen(ctx, position)
		} else {
			slog.Debug("position open handler is nil")
		}
	case PositionCloseEvent:
		position, ok := ev.data.(common.PositionUpdate)
		if !ok {
			return errors.New("invalid type assertion for position close event")
		}
		if r.OnPositionClose != nil {
			r.OnPositionClose(ctx, position)
		} else {
			slog.Debug("position close handler is nil")
		}
	case PositionUpdateEvent:
		position, ok := ev.data.(common.PositionUpdate)
		if !ok {
			return errors.New("invalid type assertion for position update event")
		}
		if r.OnPositionUpdate != nil {
			r.OnPositionUpdate(ctx, position)
		} else {
			slog.Debug("position update handler is nil")
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
