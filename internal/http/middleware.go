package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"go.uber.org/zap"
)

// Authenticator resolves the bearer token of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Caller, error)
}

// CallerHandler is a handler that runs after authentication. The caller is passed
// explicitly so nothing downstream reads identity from ambient state.
type CallerHandler func(w http.ResponseWriter, r *http.Request, caller policy.Caller)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (r *Router) requireCaller(h CallerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := bearerToken(req)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, Fail("missing bearer token"))
			return
		}
		caller, err := r.auth.Authenticate(req.Context(), token)
		if err != nil {
			if policy.StatusOf(err) == http.StatusUnauthorized {
				writeJSON(w, http.StatusUnauthorized, expired(policy.MessageOf(err)))
				return
			}
			writeError(w, r.logger, req, err)
			return
		}
		h(w, req, caller)
	}
}

// CORS allows origin (or any origin when empty) and answers preflight requests.
func CORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition")
		if origin != "*" {
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recover turns a handler panic into a 500 and logs it.
func Recover(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("Handler panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AccessLog 请求日志
func AccessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
