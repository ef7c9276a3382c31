package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoggingMiddleware logs HTTP requests and responses
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		// Get session username from context if available
		var username string
		if param.Keys != nil {
			if u, exists := param.Keys["session_username"]; exists {
				if name, ok := u.(string); ok {
					username = name
				}
			}
		}

		// Log request
		logger.Info("HTTP Request",
			zap.String("method", param.Method),
			zap.String("path", param.Path),
			zap.Int("status", param.StatusCode),
			zap.Duration("latency", param.Latency),
			zap.String("client_ip", param.ClientIP),
			zap.String("user_agent", param.Request.UserAgent()),
			zap.String("username", username),
			zap.Int("body_size", param.BodySize),
			zap.String("error", param.ErrorMessage),
		)

		return ""
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production with HTTPS
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RecoveryMiddleware provides panic recovery with logging
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		// Get request ID
		requestID, _ := c.Get("request_id")
		reqID, _ := requestID.(string)

		username, _ := GetSessionUsername(c)

		logger.Error("Panic recovered",
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("username", username),
			zap.Any("error", recovered),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		c.JSON(500, gin.H{
			"error":      "Internal server error",
			"request_id": reqID,
		})
	})
}

// RateLimiter tracks request timestamps per client over a sliding window.
// Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	maxReqs  int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a rate limiter allowing maxRequests per window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		maxReqs:  maxRequests,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a request for the given key and reports whether it is
// within the limit. The second return value is the number of requests
// remaining in the current window.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	valid := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.maxReqs {
		rl.requests[key] = valid
		return false, 0
	}

	rl.requests[key] = append(valid, now)
	return true, rl.maxReqs - len(rl.requests[key])
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(limiter *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, remaining := limiter.Allow(clientIP)

		reset := limiter.now().Add(limiter.window).Unix()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.maxReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.Int("max_requests", limiter.maxReqs),
				zap.Duration("window", limiter.window),
			)

			c.JSON(429, gin.H{
				"error": "Too many requests, please try again later",
				"code":  "RATE_LIMIT_EXCEEDED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
