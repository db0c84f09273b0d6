package helpers_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
)

func TestJWTIssueAndVerify(t *testing.T) {
	m := helpers.NewJWTManager("test-secret", time.Hour)

	token, exp, err := m.Issue("user-1", "USER")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "USER", claims.Role)
}

func TestJWTVerifyMissing(t *testing.T) {
	m := helpers.NewJWTManager("test-secret", time.Hour)
	_, err := m.Verify("")
	assert.ErrorIs(t, err, helpers.ErrTokenMissing)
}

func TestJWTVerifyExpired(t *testing.T) {
	m := helpers.NewJWTManager("test-secret", -time.Minute)
	token, _, err := m.Issue("user-1", "USER")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, helpers.ErrTokenExpired)
}

func TestJWTVerifyWrongSecret(t *testing.T) {
	issuer := helpers.NewJWTManager("secret-a", time.Hour)
	verifier := helpers.NewJWTManager("secret-b", time.Hour)

	token, _, err := issuer.Issue("user-1", "USER")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)
}

func TestJWTVerifyGarbage(t *testing.T) {
	m := helpers.NewJWTManager("test-secret", time.Hour)
	_, err := m.Verify("not.a.jwt")
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)
}

func TestJWTVerifyRejectsUnsignedToken(t *testing.T) {
	m := helpers.NewJWTManager("test-secret", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":   "user-1",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)
}
