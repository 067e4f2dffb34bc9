package recovery

// options is a struct that contains options for the recovery middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	exposeError bool
}

// Option is a type that is used to set options for the recovery middleware.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{
		exposeError: true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithExposeError controls whether a textual error message is written to the response
// body. If disabled, only the status code is set.
func WithExposeError(expose bool) Option {
	return func(o *options) {
		o.exposeError = expose
	}
}
