// Package recovery contains a middleware that recovers from panics in downstream
// handlers and converts them to internal server errors.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

type Middleware struct {
	o options
}

// New returns a new recovery middleware with the provided options.
func New(opts ...Option) *Middleware {
	return &Middleware{o: newOptions(opts...)}
}

// Handler returns the recovery middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("recovered from panic in http handler",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				if m.o.exposeError {
					http.Error(w, http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError)
				} else {
					w.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(w, r)
	})
}
