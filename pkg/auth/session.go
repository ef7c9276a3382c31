package auth

import (
	"fmt"
	"sync"
	"time"

	"recruitment-portal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the access level carried by an admin session
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "admin_session"

// SessionClaims represents the signed session token payload
type SessionClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// SessionService issues, verifies and revokes signed admin session
// tokens. Revocation is an in-process blacklist keyed by token id;
// sessions do not survive a restart, which is acceptable for a
// single-instance admin surface.
type SessionService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	revoked   *TokenBlacklist
}

// NewSessionService creates a new session service
func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		secretKey: []byte(cfg.Auth.SessionSecret),
		issuer:    "recruitment-portal",
		ttl:       cfg.Auth.SessionExpiry,
		revoked:   NewTokenBlacklist(),
	}
}

// Issue creates a signed session token for an authenticated admin user
func (s *SessionService) Issue(username string, role Role) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			Audience:  []string{"recruitment-portal-admin"},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Verify validates a session token and checks the revocation list
func (s *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, ErrSessionInvalid
	}

	if !token.Valid {
		return nil, ErrSessionInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, ErrSessionInvalid
	}

	if s.revoked.IsBlacklisted(claims.RegisteredClaims.ID) {
		return nil, ErrSessionRevoked
	}

	return claims, nil
}

// Revoke invalidates a session token ahead of its natural expiry.
// Malformed tokens are ignored, logout must not fail.
func (s *SessionService) Revoke(tokenString string) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, &SessionClaims{})
	if err != nil {
		return
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.RegisteredClaims.ExpiresAt == nil {
		return
	}
	s.revoked.Add(claims.RegisteredClaims.ID, claims.RegisteredClaims.ExpiresAt.Time)
}

// TTL returns the configured session lifetime
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// ExtractTokenFromBearer extracts token from Bearer authorization header
func ExtractTokenFromBearer(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// LoginRequest represents the admin login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse represents the session data returned on login and
// session introspection
type SessionResponse struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenBlacklist manages revoked session tokens
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewTokenBlacklist creates a new token blacklist
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{
		tokens: make(map[string]time.Time),
	}
}

// Add adds a token id to the blacklist
func (tb *TokenBlacklist) Add(tokenID string, expiresAt time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens[tokenID] = expiresAt
}

// IsBlacklisted checks if a token id is blacklisted
func (tb *TokenBlacklist) IsBlacklisted(tokenID string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	expiresAt, exists := tb.tokens[tokenID]
	if !exists {
		return false
	}

	// If the underlying token has expired the entry is no longer needed
	if time.Now().After(expiresAt) {
		delete(tb.tokens, tokenID)
		return false
	}

	return true
}

// Cleanup removes expired entries from the blacklist
func (tb *TokenBlacklist) Cleanup() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	for tokenID, expiresAt := range tb.tokens {
		if now.After(expiresAt) {
			delete(tb.tokens, tokenID)
		}
	}
}

// ValidationError represents session validation errors
type ValidationError struct {
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Common validation errors
var (
	ErrSessionInvalid = ValidationError{Message: "Invalid session", Code: "SESSION_INVALID"}
	ErrSessionRevoked = ValidationError{Message: "Session has been revoked", Code: "SESSION_REVOKED"}
)
