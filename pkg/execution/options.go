package execution

import (
	"math/rand"
	"time"
)

type Option func(*Simulator)

func WithRandom(rng *rand.Rand) Option {
	return func(s *Simulator) {
		s.rng = rng
	}
}

func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		s.clock = clock
	}
}
