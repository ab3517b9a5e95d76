package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	handlers "mosaicboard/internal/handler"
	"mosaicboard/internal/metrics"
	"mosaicboard/internal/service"
	"mosaicboard/internal/session"
)

// SessionCookie carries the same token as the Authorization header for
// page loads, where the browser cannot attach a header.
const SessionCookie = "mosaic_session"

// SesskeyHeader must accompany every write call.
const SesskeyHeader = "X-Sesskey"

type Middleware func(http.Handler) http.Handler

// AuthMiddleware resolves the acting user from a bearer token or the
// session cookie and stores it in the request context.
func AuthMiddleware(auth service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				handlers.WriteError(w, "You are not logged in.", http.StatusUnauthorized, handlers.CodeUnauthorized)
				return
			}

			userID, err := auth.UserIDFromToken(tokenString)
			if err != nil {
				handlers.WriteError(w, "Invalid or expired token", http.StatusUnauthorized, handlers.CodeUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Checking the "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SesskeyMiddleware rejects state-changing requests that do not carry a
// sesskey issued to the acting user. Must run after AuthMiddleware.
func SesskeyMiddleware(auth service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := session.UserID(r.Context())
			if !ok {
				handlers.WriteError(w, "You are not logged in.", http.StatusUnauthorized, handlers.CodeUnauthorized)
				return
			}

			if err := auth.VerifySesskey(r.Header.Get(SesskeyHeader), userID); err != nil {
				handlers.WriteError(w, "Invalid sesskey", http.StatusForbidden, handlers.CodeNoPermission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SesskeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		level := zapcore.InfoLevel
		if rec.status >= http.StatusInternalServerError {
			level = zapcore.ErrorLevel
		}

		zap.L().Log(level, "request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// MetricsMiddleware labels requests by route template so ids do not blow
// up label cardinality. Register it with Router.Use so the route is known.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					route = template
				}
			}

			m.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start).Seconds())
		})
	}
}

func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
