// SPDX-License-Identifier: MIT

package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/signaltv/signaltv/internal/telemetry"
)

type tracingWriter struct {
	http.ResponseWriter
	status int
}

func (w *tracingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Tracing opens a server span per request. Incoming trace context is
// extracted from the standard W3C headers.
func Tracing() func(http.Handler) http.Handler {
	tracer := telemetry.Tracer("signaltv/api")
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			tw := &tracingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(tw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", tw.status))
			if tw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(tw.status))
			}
		})
	}
}
