package client

import (
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

// Session holds the bearer token of a logged in caller. It is populated by
// Login, AdminLogin and Register and cleared by Logout or on expiry.
type Session struct {
	mu        sync.RWMutex
	token     string
	role      string
	userID    string
	expiresAt time.Time
	now       func() time.Time
}

func NewSession() *Session {
	return &Session{now: time.Now}
}

// Set stores tk. Role, subject and expiry are read from the token claims
// without verifying the signature; the API remains the only authority.
func (s *Session) Set(tk string) error {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tk, claims); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tk
	s.role, _ = claims["role"].(string)
	s.userID, _ = claims["user_id"].(string)
	s.expiresAt = time.Time{}
	if exp, ok := claims["exp"].(float64); ok {
		s.expiresAt = time.Unix(int64(exp), 0)
	}
	return nil
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.role, s.userID = "", "", ""
	s.expiresAt = time.Time{}
}

// Token returns the current token, clearing the session first when it has
// expired.
func (s *Session) Token() string {
	if s.Expired() {
		s.Clear()
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() string {
	if s.Token() == "" {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) UserID() string {
	if s.Token() == "" {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.expiresAt.IsZero() {
		return false
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return !now().Before(s.expiresAt)
}
