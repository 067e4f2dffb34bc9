package tracing

// options is a struct that contains options for the tracing middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	upstreamReqIdHeader string
	headerIdentifier    string
	contextIdentifier   string
}

// Option is a type that is used to set options for the tracing middleware.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{
		upstreamReqIdHeader: "X-Request-ID",
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithHeaderIdentifier specifies the header name for the request id that is added to
// the response headers. If the identifier is empty, the request id is not added to the
// response headers.
func WithHeaderIdentifier(identifier string) Option {
	return func(o *options) {
		o.headerIdentifier = identifier
	}
}

// WithUpstreamHeader sets the upstream header name that is used to fetch an existing
// request id. If no upstream header is found, a random id is generated.
func WithUpstreamHeader(header string) Option {
	return func(o *options) {
		o.upstreamReqIdHeader = header
	}
}

// WithContextIdentifier specifies the value-key for the request id that is added to
// the request context. If the identifier is empty, the request id is not added to the
// request context.
func WithContextIdentifier(identifier string) Option {
	return func(o *options) {
		o.contextIdentifier = identifier
	}
}
