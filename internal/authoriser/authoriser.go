package authoriser

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/user"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminSubject is the token subject of the configured admin identity.
	AdminSubject = "admin"
	issuer       = "job-portal"
	passwordCost = 12
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")

	dummyHashOnce sync.Once
	dummyHash     []byte
)

type Authoriser struct {
	AdminEmail    string
	AdminPassword string
	PasswordCost  int

	signingKey    []byte
	tokenTTL      time.Duration
	adminTokenTTL time.Duration
}

type AuthRq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Claims is the payload of every bearer token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

func (c Claims) Subject() Subject {
	return Subject{ID: c.UserID, Role: c.Role}
}

func NewAuthoriser(cfg config.Config) Authoriser {
	return Authoriser{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		PasswordCost:  passwordCost,
		signingKey:    cfg.JwtSigningKey,
		tokenTTL:      cfg.TokenTTL,
		adminTokenTTL: cfg.AdminTokenTTL,
	}
}

// ValidAdminRequest checks the credentials against the configured admin
// identity in constant time.
func (a Authoriser) ValidAdminRequest(rq *AuthRq) bool {
	emailOK := constantTimeEqual(strings.ToLower(strings.TrimSpace(rq.Email)), a.AdminEmail)
	passwordOK := constantTimeEqual(rq.Password, a.AdminPassword)
	return a.AdminEmail != "" && a.AdminPassword != "" && emailOK && passwordOK
}

func (a Authoriser) HashPassword(password string) (string, error) {
	cost := a.PasswordCost
	if cost == 0 {
		cost = passwordCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash password")
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash. An empty hash
// still pays for a full bcrypt comparison so a missing user costs the
// same as a wrong password.
func (a Authoriser) ComparePassword(hash, password string) bool {
	if hash == "" {
		bcrypt.CompareHashAndPassword(a.dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a Authoriser) IssueToken(userID, role string) (string, error) {
	ttl := a.tokenTTL
	if role == user.RoleAdmin {
		ttl = a.adminTokenTTL
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    issuer,
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := tkn.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "unable to sign token")
	}
	return ss, nil
}

// IssueAdminToken signs a token for the configured admin identity.
func (a Authoriser) IssueAdminToken() (string, error) {
	return a.IssueToken(AdminSubject, user.RoleAdmin)
}

// ParseToken verifies signature, algorithm and expiry of tk.
func (a Authoriser) ParseToken(tk string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tk, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a Authoriser) dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
	})
	return dummyHash
}

func constantTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
