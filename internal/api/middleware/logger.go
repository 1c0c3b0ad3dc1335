package middleware

import (
	"context"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

var fallbackLogger logrus.FieldLogger = logrus.StandardLogger()

// RequestLogger attaches a request-scoped logger carrying the request id and
// remote address, then logs one line per served request.
func RequestLogger(base logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := base.WithFields(logrus.Fields{
				"reqid":     chiMiddleware.GetReqID(r.Context()),
				"remote-ip": r.RemoteAddr,
				"method":    r.Method,
				"path":      r.URL.Path,
			})
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			ctx := context.WithValue(r.Context(), LoggerCtxKey, entry)
			next.ServeHTTP(ww, r.WithContext(ctx))

			entry.WithFields(logrus.Fields{
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			}).Info("request served")
		})
	}
}

// LoggerFromContext returns the request logger, or the standard logger outside a request.
func LoggerFromContext(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(LoggerCtxKey).(logrus.FieldLogger); ok {
		return logger
	}
	return fallbackLogger
}
