package portfolio

import (
	"time"
)

type Option func(*Portfolio)

func WithClock(clock func() time.Time) Option {
	return func(p *Portfolio) {
		p.clock = clock
	}
}
