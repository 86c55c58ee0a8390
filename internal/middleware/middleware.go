package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/talentboard/job-portal/internal/authoriser"
)

type contextKey int

const claimsKey contextKey = iota

// TokenParser validates a bearer token.
type TokenParser interface {
	ParseToken(tk string) (*authoriser.Claims, error)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func LoggingMiddleware(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info().
			Str("Host", r.Host).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("x-forwarded-for", r.Header.Get("x-forwarded-for")).
			Msg("req")
	})
}

func HeadersMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		if env != "dev" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "origin")
		}
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware lets the browser client on allowedOrigins send bearer
// tokens to the API.
func CORSMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(next)
}

// Authenticated rejects requests without a valid bearer token with 401 and
// stores the token claims in the request context otherwise.
func Authenticated(tp TokenParser, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tk, ok := BearerToken(r)
		if !ok {
			unauthorized(w, "authorization token required")
			return
		}
		claims, err := tp.ParseToken(tk)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// BearerToken extracts the token of an "Authorization: Bearer <jwt>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tk := strings.TrimSpace(h[7:])
	return tk, tk != ""
}

func ClaimsFromContext(ctx context.Context) (*authoriser.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*authoriser.Claims)
	return claims, ok && claims != nil
}

func WithClaims(ctx context.Context, claims *authoriser.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
