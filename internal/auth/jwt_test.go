package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, cfg TokenConfig) *TokenService {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewTokenService(cfg, logger)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestService(t, TokenConfig{Secret: testSecret, TTL: time.Hour, Issuer: "test-issuer"})

	token, issued, err := svc.Issue("ops-kenya")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, issued.TokenID, 36)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	details, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-kenya", details.Operator)
	assert.Equal(t, issued.TokenID, details.TokenID)
}

func TestTokenService_Defaults(t *testing.T) {
	svc := newTestService(t, TokenConfig{Secret: testSecret})
	assert.Equal(t, 12*time.Hour, svc.config.TTL)
	assert.Equal(t, "afro-ceo-agent", svc.config.Issuer)
}

func TestTokenService_MissingKey(t *testing.T) {
	svc := newTestService(t, TokenConfig{})

	_, _, err := svc.Issue("ops")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = svc.Verify("anything")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestTokenService_VerifyFailures(t *testing.T) {
	svc := newTestService(t, TokenConfig{Secret: testSecret, TTL: time.Minute, Issuer: "afro"})

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.RegisteredClaims {
		now := time.Now()
		return jwt.RegisteredClaims{
			Issuer:    "afro",
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	future := base()
	future.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	noSubject := base()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", sign(Claims{base()}, "another-secret-another-secret-12"), ErrInvalidToken},
		{"expired", sign(Claims{expired}, testSecret), ErrExpiredToken},
		{"not yet valid", sign(Claims{future}, testSecret), ErrTokenNotYetValid},
		{"issuer", sign(Claims{wrongIssuer}, testSecret), ErrInvalidIssuer},
		{"audience", sign(Claims{wrongAudience}, testSecret), ErrInvalidAudience},
		{"subject", sign(Claims{noSubject}, testSecret), ErrMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
