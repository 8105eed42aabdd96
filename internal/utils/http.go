package utils

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// Common errors
	ErrInvalidRequest     = errors.New("invalid request")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")

	// logger is used by ErrorResponse, replaced at startup with the server logger
	logger = logrus.StandardLogger()
)

// SetLogger sets the logger used for API error responses
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}

// RateLimiter manages per-key rate limiting for HTTP requests
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	visitor  map[string]time.Time
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		visitor:  make(map[string]time.Time),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// NewWindowRateLimiter allows max requests per window for each key, refilling evenly
func NewWindowRateLimiter(max int, window time.Duration) *RateLimiter {
	if max < 1 {
		max = 1
	}
	return NewRateLimiter(float64(max)/window.Seconds(), max)
}

// GetLimiter gets or creates a rate limiter for the given key
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	rl.visitor[key] = time.Now()
	return limiter
}

// CleanupLimiters removes limiters that have not been used within maxAge
func (rl *RateLimiter) CleanupLimiters(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, lastSeen := range rl.visitor {
		if time.Since(lastSeen) > maxAge {
			delete(rl.limiters, key)
			delete(rl.visitor, key)
		}
	}
}

// retryAfter returns how long until the next token is available
func (rl *RateLimiter) retryAfter() time.Duration {
	if rl.rate <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(rl.rate))
}

// Response represents a standardized API error response
type Response struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError represents an API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta contains response metadata
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorResponse returns a standardized error response
func ErrorResponse(c *gin.Context, statusCode int, code, message, details string) {
	logEntry := logger.WithFields(logrus.Fields{
		"status_code": statusCode,
		"error_code":  code,
		"message":     message,
		"client_ip":   GetClientIP(c),
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"request_id":  c.GetString("request_id"),
	})

	if details != "" {
		logEntry = logEntry.WithField("details", details)
	}

	// Don't log 4xx errors as errors, they're client errors
	if statusCode >= 500 {
		logEntry.Error("API error response")
	} else {
		logEntry.Info("API client error response")
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &Meta{
			Timestamp: time.Now(),
			RequestID: c.GetString("request_id"),
		},
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, "")
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication is required to access this resource"
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, "")
}

// NotFound returns a 404 Not Found response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "The requested resource was not found"
	}
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, "")
}

// Conflict returns a 409 Conflict response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "The request could not be completed due to a conflict"
	}
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, "")
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	ErrorResponse(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", message, "")
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "An internal server error occurred"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, "")
}

// BadGateway returns a 502 Bad Gateway response for failing upstream services
func BadGateway(c *gin.Context, message, details string) {
	ErrorResponse(c, http.StatusBadGateway, "BAD_GATEWAY", message, details)
}

// ServiceUnavailable returns a 503 Service Unavailable response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "The service is currently unavailable"
	}
	ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, "")
}

// BindJSON binds the request body to the given struct with error handling
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request body: "+DescribeBindError(err))
		return false
	}
	return true
}

// BindQuery binds the query parameters to the given struct with error handling
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		BadRequest(c, "Invalid query parameters: "+DescribeBindError(err))
		return false
	}
	return true
}

// GetClientIP returns the client IP address
func GetClientIP(c *gin.Context) string {
	clientIP := c.ClientIP()

	if clientIP == "" {
		if ip, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
			clientIP = ip
		}
	}

	return clientIP
}

// SecureHeaders returns a middleware adding helmet-style security headers
func SecureHeaders(contentSecurityPolicy string, strictTransport bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if contentSecurityPolicy != "" {
			c.Header("Content-Security-Policy", contentSecurityPolicy)
		}
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("X-Download-Options", "noopen")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		if strictTransport {
			c.Header("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		c.Next()
	}
}

// RateLimitMiddleware creates a middleware that limits request rates per client IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetClientIP(c)

		if !limiter.GetLimiter(key).Allow() {
			seconds := int(math.Ceil(limiter.retryAfter().Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			TooManyRequests(c, "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return id.String()
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(c *gin.Context) string {
	if reqID, exists := c.Get("request_id"); exists {
		if idStr, ok := reqID.(string); ok {
			return idStr
		}
	}
	return GenerateRequestID()
}
