package logging

import "log/slog"

// options is a struct that contains options for the logging middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	level slog.Level
}

// Option is a type that is used to set options for the logging middleware.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{
		level: slog.LevelInfo,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLevel sets the log level that is used for the request log lines.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}
