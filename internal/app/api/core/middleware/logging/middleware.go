// Package logging contains a middleware that logs incoming requests with their
// response status and duration.
package logging

import (
	"log/slog"
	"net/http"
	"time"
)

type Middleware struct {
	o options
}

// New returns a new logging middleware with the provided options.
func New(opts ...Option) *Middleware {
	return &Middleware{o: newOptions(opts...)}
}

// Handler returns the logging middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		slog.Log(r.Context(), m.o.level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

// statusWriter captures the status code written by the downstream handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(data)
}
