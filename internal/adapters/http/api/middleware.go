// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/okian/quicktodo/pkg/logger"
	"github.com/okian/quicktodo/pkg/metrics"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// unmatchedRoute labels requests that reached no named route.
const unmatchedRoute = "unmatched"

// RequestIDMiddleware echoes a valid incoming X-Request-ID or mints a new one,
// and scopes it onto the request context for logging.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logger.WithFields(r.Context(), logger.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MetricsMiddleware records Prometheus metrics and an access log line per request.
func MetricsMiddleware(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			route := routeName(r)
			durationMs := float64(m.Duration.Microseconds()) / 1000
			statusCodeStr := strconv.Itoa(m.Code)

			metrics.RecordHTTPRequest(route, r.Method, statusCodeStr)
			metrics.RecordHTTPRequestDuration(route, r.Method, statusCodeStr, durationMs)

			if m.Code >= statusBadRequest {
				errorType := getErrorType(m.Code)
				metrics.RecordErrorByEndpoint(route, r.Method, errorType)
				metrics.RecordErrorByType(errorType, getErrorSeverity(m.Code))
			}

			log.Debug(r.Context(), "handled",
				logger.String("method", r.Method),
				logger.String("route", route),
				logger.Int("status", m.Code),
				logger.Float64("duration_ms", durationMs),
			)
		})
	}
}

func routeName(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if name := cur.GetName(); name != "" {
			return name
		}
	}
	return unmatchedRoute
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}
