package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/afro-network/ceo-agent/internal/auth"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// operatorKey is the gin context key for the verified operator
const operatorKey = "operator"

// Authentication errors
var (
	ErrAuthHeaderMissing = errors.New("authorization header is required")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrTokenVerification = errors.New("failed to verify token")
)

// TokenVerifier verifies bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.TokenDetails, error)
}

// AuthMiddleware guards routes with an operator token
type AuthMiddleware struct {
	verifier TokenVerifier
	enabled  bool
}

// NewAuthMiddleware creates a new authentication middleware. When disabled,
// RequireOperator lets every request through.
func NewAuthMiddleware(verifier TokenVerifier, enabled bool) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		enabled:  enabled && verifier != nil,
	}
}

// Enabled reports whether tokens are checked
func (m *AuthMiddleware) Enabled() bool {
	return m.enabled
}

// RequireOperator ensures the request carries a valid operator token
func (m *AuthMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		details, err := m.extractAndValidateToken(c)
		if err != nil {
			utils.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(operatorKey, details.Operator)
		c.Next()
	}
}

func (m *AuthMiddleware) extractAndValidateToken(c *gin.Context) (*auth.TokenDetails, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, ErrAuthHeaderMissing
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return nil, ErrInvalidAuthHeader
	}

	details, err := m.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenVerification, err)
	}
	return details, nil
}

// GetOperator returns the operator set by RequireOperator
func GetOperator(c *gin.Context) string {
	return c.GetString(operatorKey)
}
