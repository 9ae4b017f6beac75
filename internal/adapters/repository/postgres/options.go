package postgres

import "time"

// Options holds the connection pool settings.
type Options struct {
	// MaxConns caps the number of pooled connections.
	MaxConns int32

	// ApplicationName is reported to the server and shows up in
	// pg_stat_activity.
	ApplicationName string

	// ConnectTimeout bounds the initial dial of each connection.
	ConnectTimeout time.Duration

	// HealthCheckPeriod is how often idle connections are checked.
	HealthCheckPeriod time.Duration
}

// DefaultOptions returns the settings used when no options are provided.
func DefaultOptions() *Options {
	return &Options{
		MaxConns:          10,
		ApplicationName:   "felma",
		ConnectTimeout:    5 * time.Second,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// Option configures the connection pool.
type Option func(*Options)

// WithMaxConns caps the number of pooled connections.
func WithMaxConns(n int32) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxConns = n
		}
	}
}

// WithApplicationName overrides the reported application_name.
func WithApplicationName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.ApplicationName = name
		}
	}
}

// WithConnectTimeout overrides the per-connection dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ConnectTimeout = d
		}
	}
}
