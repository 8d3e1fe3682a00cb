package orderqueue

import (
	"time"
)

type Option func(*Queue)

func WithDefaultTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		q.defaultTTL = ttl
	}
}

func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		q.clock = clock
	}
}

func WithHandler(handler Handler) Option {
	return func(q *Queue) {
		q.handler = handler
	}
}
