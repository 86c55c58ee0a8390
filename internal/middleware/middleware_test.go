package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/user"
)

func testAuthoriser() authoriser.Authoriser {
	return authoriser.NewAuthoriser(config.Config{
		JwtSigningKey: []byte("k"),
		TokenTTL:      time.Hour,
		AdminTokenTTL: time.Hour,
	})
}

func TestAuthenticated(t *testing.T) {
	auth := testAuthoriser()
	tk, err := auth.IssueToken("u1", user.RoleRecruiter)
	require.NoError(t, err)

	var called bool
	var got *authoriser.Claims
	h := Authenticated(auth, func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": tk,
		"basic":     "Basic dTpw",
		"empty":     "Bearer ",
		"invalid":   "Bearer abc.def.ghi",
	} {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/jobs/my-jobs", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Contains(t, rec.Body.String(), `"message"`, name)
		assert.False(t, called, name)
	}

	req := httptest.NewRequest(http.MethodGet, "/jobs/my-jobs", nil)
	req.Header.Set("Authorization", "bearer "+tk)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, called)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, user.RoleRecruiter, got.Role)
}

func TestClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := ClaimsFromContext(req.Context())
	assert.False(t, ok)

	ctx := WithClaims(req.Context(), &authoriser.Claims{UserID: "u1", Role: user.RoleJobseeker})
	claims, ok := ClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	h := LoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"method":"POST"`)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-unknown-header")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/jobs/all", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHeadersMiddleware(t *testing.T) {
	h := HeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), "prod")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
