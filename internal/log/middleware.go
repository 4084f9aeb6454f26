// SPDX-License-Identifier: MIT

package log

import (
	"net/http"
	"time"
)

// Middleware returns an HTTP middleware that logs one structured line per
// request after it completes, enriched with the request ID from context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			logger := WithComponentFromContext(r.Context(), "http")
			logger.Info().
				Str("event", "http.request").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", lw.status).
				Int("bytes", lw.bytes).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Str("remote", r.RemoteAddr).
				Msg("request completed")
		})
	}
}

type loggingWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (lw *loggingWriter) WriteHeader(status int) {
	if !lw.written {
		lw.status = status
		lw.written = true
	}
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.written {
		lw.WriteHeader(http.StatusOK)
	}
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += n
	return n, err
}
