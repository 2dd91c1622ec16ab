package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"frost_dispatch/internal/backend"
)

const sessionKey = "session"

// SessionClaims are carried by the dashboard token. bt is the backend token
// forwarded in the "token" header of every backend call.
type SessionClaims struct {
	SessionID    string `json:"sid"`
	AdminID      uint   `json:"admin_id"`
	Role         string `json:"role"`
	BackendToken string `json:"bt"`
	jwt.RegisteredClaims
}

// Tokens issues and validates dashboard tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken starts a new dashboard session for an authenticated admin.
func (t *Tokens) GenerateToken(adminID uint, role, backendToken string) (string, backend.Session, error) {
	s := backend.Session{
		ID:      uuid.NewString(),
		AdminID: adminID,
		Role:    role,
		Token:   backendToken,
	}
	now := t.now()
	claims := SessionClaims{
		SessionID:    s.ID,
		AdminID:      adminID,
		Role:         role,
		BackendToken: backendToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	return signed, s, err
}

// ValidateToken parses a dashboard token and returns its session.
func (t *Tokens) ValidateToken(tokenStr string) (backend.Session, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return backend.Session{}, err
	}
	if !token.Valid || claims.SessionID == "" || claims.BackendToken == "" {
		return backend.Session{}, errors.New("invalid token claims")
	}
	return backend.Session{
		ID:      claims.SessionID,
		AdminID: claims.AdminID,
		Role:    claims.Role,
		Token:   claims.BackendToken,
	}, nil
}

// RequireSession ensures a valid dashboard token is present, either as a
// Bearer header or, for websocket upgrades, as the "token" query parameter.
func (t *Tokens) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if q := c.Query("token"); q != "" {
			tokenString = q
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		s, err := t.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

// RequireRole ensures the session belongs to one of roles. It must run after RequireSession.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
			return
		}
		for _, r := range roles {
			if s.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (backend.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return backend.Session{}, false
	}
	s, ok := v.(backend.Session)
	return s, ok
}
