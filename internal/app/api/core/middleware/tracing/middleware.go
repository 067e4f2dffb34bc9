// Package tracing contains a middleware that attaches a unique request id to every
// incoming request. The id is stored in the request context and echoed back in a
// response header so that client reports can be correlated with server logs.
package tracing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type Middleware struct {
	o options
}

// New returns a new tracing middleware with the provided options.
func New(opts ...Option) *Middleware {
	return &Middleware{o: newOptions(opts...)}
}

// Handler returns the tracing middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqId string

		// re-use an upstream id if a proxy already assigned one
		if m.o.upstreamReqIdHeader != "" {
			reqId = r.Header.Get(m.o.upstreamReqIdHeader)
		}
		if reqId == "" {
			reqId = uuid.New().String()
		}

		if m.o.headerIdentifier != "" {
			w.Header().Set(m.o.headerIdentifier, reqId)
		}

		if m.o.contextIdentifier != "" {
			ctx := context.WithValue(r.Context(), m.o.contextIdentifier, reqId)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

// RequestId returns the request id that the middleware stored in the context under the
// given identifier. It returns an empty string if no id is stored.
func RequestId(ctx context.Context, contextIdentifier string) string {
	if id, ok := ctx.Value(contextIdentifier).(string); ok {
		return id
	}
	return ""
}
