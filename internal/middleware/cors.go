package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig contains configuration for CORS middleware
type CORSConfig struct {
	// AllowOrigins lists the origins a cross-domain request can be executed from.
	// "*" allows any origin and "*.example.com" any subdomain.
	AllowOrigins []string

	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string

	// MaxAge is how long a preflight answer can be cached
	MaxAge time.Duration
}

// DefaultCORSConfig returns the configuration used by the dashboard
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
}

// CORS returns the middleware allowing the given origins
func CORS(origins ...string) gin.HandlerFunc {
	cfg := DefaultCORSConfig()
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	return CORSWithConfig(cfg)
}

// CORSWithConfig returns the CORS middleware with custom configuration
func CORSWithConfig(config CORSConfig) gin.HandlerFunc {
	allowed := normalizeOrigins(config.AllowOrigins)
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")
	expose := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" || !isOriginAllowed(allowed, origin) {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if expose != "" {
			c.Header("Access-Control-Expose-Headers", expose)
		}
		c.Next()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if o := strings.ToLower(strings.TrimSpace(origin)); o != "" {
			out = append(out, strings.TrimSuffix(o, "/"))
		}
	}
	return out
}

func isOriginAllowed(allowedOrigins []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*", allowed == origin:
			return true
		case strings.HasPrefix(allowed, "*."):
			if strings.HasSuffix(origin, allowed[1:]) {
				return true
			}
		}
	}
	return false
}
