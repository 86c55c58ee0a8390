package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t *testing.T, userID, role string, exp time.Time) string {
	t.Helper()
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     exp.Unix(),
	}).SignedString([]byte("any"))
	require.NoError(t, err)
	return tk
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(token(t, "u1", "recruiter", now.Add(time.Hour))))
	assert.Equal(t, "recruiter", s.Role())
	assert.Equal(t, "u1", s.UserID())
	assert.NotEmpty(t, s.Token())

	now = now.Add(2 * time.Hour)
	assert.True(t, s.Expired())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.Role())

	require.NoError(t, s.Set(token(t, "u1", "jobseeker", now.Add(time.Hour))))
	s.Clear()
	assert.Empty(t, s.Token())

	assert.Error(t, s.Set("garbage"))
}

func TestGuard(t *testing.T) {
	anonymous := NewSession()
	seeker := NewSession()
	require.NoError(t, seeker.Set(token(t, "u1", "jobseeker", time.Now().Add(time.Hour))))
	admin := NewSession()
	require.NoError(t, admin.Set(token(t, "admin", "admin", time.Now().Add(time.Hour))))

	tests := []struct {
		route   string
		session *Session
		want    string
	}{
		{"/", anonymous, ""},
		{"/job/abc", anonymous, ""},
		{"/login", anonymous, ""},
		{"/jobseeker-dashboard", anonymous, LoginRoute},
		{"/recruiter/edit-job/j1", anonymous, LoginRoute},
		{"/apply-job/j1?x=1", nil, LoginRoute},
		{"/jobseeker-dashboard", seeker, ""},
		{"/admin/login", anonymous, ""},
		{"/admin/dashboard", anonymous, AdminLoginRoute},
		{"/admin/dashboard", seeker, AdminLoginRoute},
		{"/admin/dashboard", admin, ""},
		{"/admin", seeker, AdminLoginRoute},
		{"/admin?tab=users", anonymous, AdminLoginRoute},
		{"/administrator", anonymous, ""},
		{"/recruiters-guide", anonymous, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Guard(tt.route, tt.session), tt.route)
	}
}

func TestClientLoginAttachesToken(t *testing.T) {
	tk := token(t, "u1", "recruiter", time.Now().Add(time.Hour))
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var rq map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rq))
			if rq["role"] != "recruiter" {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"message": "this user is not registered as a " + rq["role"]})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"token": tk, "user": map[string]string{"_id": "u1", "role": "recruiter"}})
		case "/jobs/my-jobs":
			seenAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode([]map[string]interface{}{{"_id": "j1", "title": "Go Developer"}})
		case "/auth/me":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid or expired token"})
		case "/auth/logout":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ctx := context.Background()

	_, err := c.Login(ctx, "r@x.com", "pw", "jobseeker")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Message, "not registered as a jobseeker")
	assert.Empty(t, c.Session.Token())

	u, err := c.Login(ctx, "r@x.com", "pw", "recruiter")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "recruiter", c.Session.Role())

	jobs, err := c.MyJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Bearer "+tk, seenAuth)

	_, err = c.Me(ctx)
	require.Error(t, err)
	assert.Empty(t, c.Session.Token())

	require.NoError(t, c.Session.Set(tk))
	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Session.Token())
}
