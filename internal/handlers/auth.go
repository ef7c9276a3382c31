package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"recruitment-portal/config"
	"recruitment-portal/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	cfg      *config.Config
	sessions *auth.SessionService
	logger   *zap.Logger
}

func NewAuthHandler(cfg *config.Config, sessions *auth.SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		sessions: sessions,
		logger:   logger,
	}
}

// Login handles admin login and issues the session cookie
// @Summary Admin login
// @Description Authenticate with configured credentials and receive a session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.SessionResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/admin [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if h.cfg.Auth.AdminPassword == "" && h.cfg.Auth.ViewerPassword == "" {
		h.logger.Error("Admin credentials not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	role, ok := h.matchCredentials(req.Username, req.Password)
	if !ok {
		h.logger.Warn("Failed login attempt",
			zap.String("username", req.Username),
			zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
			"code":  "INVALID_CREDENTIALS",
		})
		return
	}

	token, err := h.sessions.Issue(req.Username, role)
	if err != nil {
		h.logger.Error("Failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	maxAge := int(h.sessions.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, token, maxAge, "/", "", h.cfg.IsProduction(), true)

	h.logger.Info("Admin logged in",
		zap.String("username", req.Username),
		zap.String("role", string(role)))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": req.Username,
		"role":     role,
	})
}

// matchCredentials checks the supplied pair against the configured
// admin and viewer accounts. Configured passwords may be plain or
// bcrypt-hashed; hashed values start with the usual $2 prefix.
func (h *AuthHandler) matchCredentials(username, password string) (auth.Role, bool) {
	if h.cfg.Auth.AdminUsername != "" && username == h.cfg.Auth.AdminUsername &&
		passwordMatches(h.cfg.Auth.AdminPassword, password) {
		return auth.RoleAdmin, true
	}
	if h.cfg.Auth.ViewerUsername != "" && username == h.cfg.Auth.ViewerUsername &&
		passwordMatches(h.cfg.Auth.ViewerPassword, password) {
		return auth.RoleViewer, true
	}
	return "", false
}

func passwordMatches(configured, supplied string) bool {
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

// Logout revokes the current session and clears the cookie
// @Summary Admin logout
// @Description Revoke the session and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/admin [delete]
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
		h.sessions.Revoke(cookie)
	}

	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status reports whether the caller holds a valid session
// @Summary Session status
// @Description Check whether the current session cookie is valid
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/admin [get]
func (h *AuthHandler) Status(c *gin.Context) {
	cookie, err := c.Cookie(auth.SessionCookieName)
	if err != nil || cookie == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	claims, err := h.sessions.Verify(cookie)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      claims.Username,
		"role":          claims.Role,
		"expires_at":    claims.ExpiresAt.Time,
	})
}
