package middleware

import (
	"errors"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/utils"
)

// RecoveryMiddleware turns handler panics into JSON 500 responses
type RecoveryMiddleware struct {
	logger *logrus.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(logger *logrus.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

// Recovery returns a middleware that recovers from panics
func (m *RecoveryMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			m.logger.WithFields(logrus.Fields{
				"error":      rec,
				"request":    redactAuthorization(string(httpRequest)),
				"stack":      string(debug.Stack()),
				"client_ip":  c.ClientIP(),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString("request_id"),
			}).Error("[Recovery] Panic recovered")

			// A dead connection cannot take a response
			if isBrokenPipe(rec) || c.Writer.Written() {
				c.Abort()
				return
			}

			utils.InternalServerError(c, "Internal Server Error")
			c.Abort()
		}()
		c.Next()
	}
}

func isBrokenPipe(rec interface{}) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr.Err, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

func redactAuthorization(dump string) string {
	lines := strings.Split(dump, "\r\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "authorization:") {
			lines[i] = "Authorization: [REDACTED]"
		}
	}
	return strings.Join(lines, "\r\n")
}
