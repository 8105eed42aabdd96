package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/utils"
)

const maxRequestIDLength = 128

// LoggingMiddleware logs HTTP requests
type LoggingMiddleware struct {
	logger         *logrus.Logger
	logRequestBody bool
	maxBodyLogSize int
	skipPaths      map[string]bool
}

// LoggingOption configures the logging middleware
type LoggingOption func(*LoggingMiddleware)

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logrus.Logger, opts ...LoggingOption) *LoggingMiddleware {
	m := &LoggingMiddleware{
		logger:         logger,
		maxBodyLogSize: 1024,
		skipPaths:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithRequestBodyLogging enables logging of request bodies
func WithRequestBodyLogging(enabled bool) LoggingOption {
	return func(m *LoggingMiddleware) {
		m.logRequestBody = enabled
	}
}

// WithMaxBodyLogSize sets the maximum size of request bodies to log
func WithMaxBodyLogSize(sizeBytes int) LoggingOption {
	return func(m *LoggingMiddleware) {
		m.maxBodyLogSize = sizeBytes
	}
}

// WithSkipPaths disables logging of successful requests to the given paths.
// Failures on those paths are still logged.
func WithSkipPaths(paths ...string) LoggingOption {
	return func(m *LoggingMiddleware) {
		for _, p := range paths {
			m.skipPaths[p] = true
		}
	}
}

// Logger returns a gin middleware function for logging requests
func (m *LoggingMiddleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		var requestBody []byte
		if m.logRequestBody && c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			requestBody = bodyBytes
			if len(requestBody) > m.maxBodyLogSize {
				requestBody = requestBody[:m.maxBodyLogSize]
			}
		}

		c.Next()

		status := c.Writer.Status()
		if status < 400 && m.skipPaths[c.Request.URL.Path] {
			return
		}

		fields := logrus.Fields{
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": c.GetString("request_id"),
			"user_agent": c.Request.UserAgent(),
		}
		if len(requestBody) > 0 {
			fields["request_body"] = string(requestBody)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields["error"] = errs
		}
		if operator := GetOperator(c); operator != "" {
			fields["operator"] = operator
		}

		entry := m.logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("Request processed with error")
		case status >= 400:
			entry.Warn("Request processed with warning")
		default:
			entry.Info("Request processed")
		}
	}
}

// RequestIDMiddleware adds a unique request ID to each request and to the
// request context for layers without a gin.Context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = utils.GenerateRequestID()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(utils.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
