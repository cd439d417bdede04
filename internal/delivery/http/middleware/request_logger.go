package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"

	"github.com/google/uuid"
)

// HTTPObserver receives one observation per finished request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// RequestLogger logs every request with timing and status and reports it to
// observer when one is given.
func RequestLogger(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()[:8]
			}
			reqLogger := logger.WithRequestID(requestID)
			r = r.WithContext(logger.NewContext(r.Context(), &reqLogger))
			w.Header().Set("X-Request-ID", requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			// Pattern is filled in by the ServeMux; unmatched paths share
			// one label.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if observer != nil {
				observer.ObserveHTTP(r.Method, route, wrapped.statusCode, duration)
			}

			userID := ""
			if claims, err := utils.ExtractClaims(r); err == nil {
				userID = claims.UserID
			}

			logEvent := reqLogger.Info()
			if wrapped.statusCode >= 500 {
				logEvent = reqLogger.Error()
			} else if wrapped.statusCode >= 400 {
				logEvent = reqLogger.Warn()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Str("query", r.URL.RawQuery).
				Int("status", wrapped.statusCode).
				Dur("duration_ms", duration).
				Str("ip", getClientIP(r)).
				Str("user_agent", r.UserAgent()).
				Str("user_id", userID).
				Msg("HTTP")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// getClientIP prefers the first hop of X-Forwarded-For, then X-Real-IP,
// then the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
