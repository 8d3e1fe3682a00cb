package orderbook

import (
	"math/rand"
	"time"

	"github.com/altrega/paperbroker/pkg/utility/fixed"
)

type Option func(*Simulator)

func WithLevels(numLevels int) Option {
	return func(s *Simulator) {
		s.numLevels = numLevels
	}
}

func WithDecayRate(decayRate fixed.Point) Option {
	return func(s *Simulator) {
		s.decayRate = decayRate
	}
}

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
