// Package repository defines the item store contracts and the in-memory
// implementation used for development and tests.
package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
