package middleware

import (
	"net/http"

	"recruitment-portal/config"
	"recruitment-portal/pkg/auth"

	"github.com/gin-gonic/gin"
)

// SessionAuth authenticates admin requests. Interactive clients carry
// the signed session cookie, machine clients carry the configured
// bearer token instead. Either one passes; neither yields a 401.
func SessionAuth(sessions *auth.SessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bearer path for machine-to-machine calls
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			token := auth.ExtractTokenFromBearer(authHeader)
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid authorization header format",
					"code":  "INVALID_AUTH_FORMAT",
				})
				c.Abort()
				return
			}
			if cfg.Auth.BearerToken != "" && token == cfg.Auth.BearerToken {
				c.Set("session_username", "api")
				c.Set("session_role", auth.RoleAdmin)
				c.Next()
				return
			}
			// Fall through: the bearer value may be a session token
			// issued to a browser-less client
			if claims, err := sessions.Verify(token); err == nil {
				setSession(c, claims)
				c.Next()
				return
			}

			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
				"code":  "TOKEN_INVALID",
			})
			c.Abort()
			return
		}

		// Cookie path for the admin UI
		cookie, err := c.Cookie(auth.SessionCookieName)
		if err != nil || cookie == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_SESSION",
			})
			c.Abort()
			return
		}

		claims, err := sessions.Verify(cookie)
		if err != nil {
			var code string
			var message string

			switch err {
			case auth.ErrSessionRevoked:
				code = "SESSION_REVOKED"
				message = "Session has been revoked"
			default:
				code = "SESSION_INVALID"
				message = "Invalid session"
			}

			c.JSON(http.StatusUnauthorized, gin.H{
				"error": message,
				"code":  code,
			})
			c.Abort()
			return
		}

		setSession(c, claims)
		c.Next()
	}
}

func setSession(c *gin.Context, claims *auth.SessionClaims) {
	c.Set("session_username", claims.Username)
	c.Set("session_role", claims.Role)
	c.Set("session_claims", claims)
}

// RequireRole ensures the session carries one of the given roles
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionRole, exists := c.Get("session_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Session role not found in context",
				"code":  "MISSING_SESSION_ROLE",
			})
			c.Abort()
			return
		}

		role, ok := sessionRole.(auth.Role)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid session role type",
				"code":  "INVALID_ROLE_TYPE",
			})
			c.Abort()
			return
		}

		for _, requiredRole := range roles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// RequireAdmin ensures the session has the admin role. Viewer sessions
// can read but never mutate.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

// GetSessionRole extracts the current session role from context
func GetSessionRole(c *gin.Context) (auth.Role, bool) {
	sessionRole, exists := c.Get("session_role")
	if !exists {
		return "", false
	}

	role, ok := sessionRole.(auth.Role)
	return role, ok
}

// GetSessionUsername extracts the current session username from context
func GetSessionUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get("session_username")
	if !exists {
		return "", false
	}

	name, ok := username.(string)
	return name, ok
}

// LegacyQueryAuth guards the spreadsheet-era read endpoint: a static
// token plus path pair carried as query parameters. Kept for the old
// Apps Script clients, which cannot send headers or cookies.
func LegacyQueryAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Legacy.Token == "" || cfg.Legacy.Path == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Legacy access is not configured",
				"code":  "LEGACY_DISABLED",
			})
			c.Abort()
			return
		}

		if c.Query("token") != cfg.Legacy.Token || c.Query("path") != cfg.Legacy.Path {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid legacy credentials",
				"code":  "INVALID_LEGACY_CREDENTIALS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LegacyUploadAuth guards the legacy upload endpoint with its shared
// api_key query parameter
func LegacyUploadAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Legacy.UploadKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Legacy upload is not configured",
				"code":  "LEGACY_DISABLED",
			})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey != cfg.Legacy.UploadKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
				"code":  "INVALID_API_KEY",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORSMiddleware handles CORS headers
func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type, Authorization, X-Requested-With, X-API-Key")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
