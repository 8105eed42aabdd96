// Package auth issues and verifies the operator tokens that guard the
// mutating endpoints.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// JWT error definitions
var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token has expired")
	ErrTokenNotYetValid     = errors.New("token not yet valid")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrInvalidClaims        = errors.New("invalid token claims")
	ErrMissingKey           = errors.New("signing key is missing")
	ErrInvalidIssuer        = errors.New("invalid token issuer")
	ErrInvalidAudience      = errors.New("invalid token audience")
	ErrMissingSubject       = errors.New("token subject is missing")
)

// Audience is the only audience operator tokens are issued for
const Audience = "afro-stack-ops"

// TokenConfig contains configuration for operator tokens
type TokenConfig struct {
	// Secret is the HMAC signing key
	Secret string

	// TTL is the lifetime of an issued token
	TTL time.Duration

	// Issuer identifies the agent that issued the token
	Issuer string
}

// DefaultTokenConfig returns the default token configuration
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		TTL:    12 * time.Hour,
		Issuer: "afro-ceo-agent",
	}
}

// Claims are the operator token claims
type Claims struct {
	jwt.RegisteredClaims
}

// TokenDetails describes a verified token
type TokenDetails struct {
	TokenID   string    `json:"token_id"`
	Operator  string    `json:"operator"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService signs and verifies operator tokens
type TokenService struct {
	config TokenConfig
	log    *logrus.Logger
	now    func() time.Time
}

// NewTokenService creates a token service. An empty secret is allowed but
// every Issue and Verify call then fails with ErrMissingKey.
func NewTokenService(config TokenConfig, log *logrus.Logger) *TokenService {
	defaults := DefaultTokenConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.Issuer == "" {
		config.Issuer = defaults.Issuer
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if config.Secret == "" {
		log.Warn("Operator token secret is empty, tokens cannot be issued or verified")
	}
	return &TokenService{config: config, log: log, now: time.Now}
}

// Issue signs a token for the named operator
func (s *TokenService) Issue(operator string) (string, *TokenDetails, error) {
	if s.config.Secret == "" {
		return "", nil, ErrMissingKey
	}
	if operator == "" {
		return "", nil, ErrMissingSubject
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.TTL)
	tokenID := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.config.Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ID:        tokenID,
			Subject:   operator,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &TokenDetails{
		TokenID:   tokenID,
		Operator:  operator,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates a token and returns its details
func (s *TokenService) Verify(tokenString string) (*TokenDetails, error) {
	if s.config.Secret == "" {
		return nil, ErrMissingKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		s.log.WithError(err).Debug("Token parsing failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Issuer != s.config.Issuer {
		return nil, ErrInvalidIssuer
	}
	if !hasAudience(claims.Audience) {
		return nil, ErrInvalidAudience
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	details := &TokenDetails{
		TokenID:  claims.ID,
		Operator: claims.Subject,
	}
	if claims.IssuedAt != nil {
		details.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		details.ExpiresAt = claims.ExpiresAt.Time
	}
	return details, nil
}

func hasAudience(aud jwt.ClaimStrings) bool {
	for _, a := range aud {
		if a == Audience {
			return true
		}
	}
	return false
}
