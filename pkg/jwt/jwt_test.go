package jwt

import (
	"testing"
	"time"

	"passmais-agenda/config"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute})
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "ana@passmais.com", "DOCTOR")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "DOCTOR", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestJWTService_RejectsWrongSecretAndExpired(t *testing.T) {
	issuer := NewJWTService(config.JWTConfig{Secret: "a", AccessExpiry: time.Minute})
	token, err := issuer.GenerateAccessToken(uuid.New(), "", "PATIENT")
	require.NoError(t, err)

	_, err = NewJWTService(config.JWTConfig{Secret: "b"}).ValidateToken(token)
	assert.Error(t, err)

	expired, err := NewJWTService(config.JWTConfig{Secret: "a", AccessExpiry: -time.Minute}).GenerateAccessToken(uuid.New(), "", "PATIENT")
	require.NoError(t, err)
	_, err = issuer.ValidateToken(expired)
	assert.Error(t, err)
}

func TestJWTService_SubjectFallback(t *testing.T) {
	userID := uuid.New()
	raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":  userID.String(),
		"role": "PATIENT",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	token, err := raw.SignedString([]byte("k"))
	require.NoError(t, err)

	claims, err := NewJWTService(config.JWTConfig{Secret: "k"}).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, TokenType(""), claims.TokenType)
}
