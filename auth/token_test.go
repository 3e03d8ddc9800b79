package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("s3cret", "user_1", "ada@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	good, err := IssueToken("s3cret", "user_1", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("s3cret", "user_1", "", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user_1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		secret, token string
	}{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"alg none":     {"s3cret", none},
		"garbage":      {"s3cret", "not.a.token"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueTokenEmptySecret(t *testing.T) {
	_, err := IssueToken("", "user_1", "", time.Hour)
	assert.Error(t, err)
}
