package repository

import "math/rand/v2"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithRandSource sets the source of treap priorities. Tests use a seeded
// source to get repeatable shapes.
func WithRandSource(src rand.Source) Option {
	return func(s *TreapStore) {
		if src != nil {
			s.rng = rand.New(src)
		}
	}
}
