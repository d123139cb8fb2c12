package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer  = "habit-tracker"
	testSignKey = "secret-key"
)

func TestGenerateJWTToken(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 123, time.Hour, testSignKey)
	require.NoError(t, err)

	assert.NotEmpty(t, token.SignedString)
	assert.Equal(t, int64(123), token.UserID)

	claims, ok := token.Token.Claims.(*jwt.RegisteredClaims)
	require.True(t, ok)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, "123", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		duration time.Duration
		key      string
	}{
		{name: "empty issuer", issuer: "", duration: time.Hour, key: "key"},
		{name: "zero duration", issuer: "iss", duration: 0, key: "key"},
		{name: "empty key", issuer: "iss", duration: time.Hour, key: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, 1, tt.duration, tt.key)
			assert.ErrorIs(t, err, ErrInvalidTokenParams)
		})
	}
}

func TestValidateAndParseJWTToken(t *testing.T) {
	valid, err := GenerateJWTToken(testIssuer, 456, 5*time.Minute, testSignKey)
	require.NoError(t, err)
	expired, err := GenerateJWTToken(testIssuer, 456, -time.Second, testSignKey)
	require.NoError(t, err)
	zeroSubject, err := GenerateJWTToken(testIssuer, 0, time.Hour, testSignKey)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		key     string
		issuer  string
		wantErr error
		wantID  int64
	}{
		{name: "valid", token: valid.SignedString, key: testSignKey, issuer: testIssuer, wantID: 456},
		{name: "wrong key", token: valid.SignedString, key: "other-key", issuer: testIssuer, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "wrong issuer", token: valid.SignedString, key: testSignKey, issuer: "someone-else", wantErr: jwt.ErrTokenInvalidIssuer},
		{name: "expired", token: expired.SignedString, key: testSignKey, issuer: testIssuer, wantErr: jwt.ErrTokenExpired},
		{name: "malformed", token: "not.a.token", key: testSignKey, issuer: testIssuer, wantErr: jwt.ErrTokenMalformed},
		{name: "subject is not a user", token: zeroSubject.SignedString, key: testSignKey, issuer: testIssuer, wantErr: ErrInvalidSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ValidateAndParseJWTToken(tt.token, tt.key, tt.issuer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, token.UserID)
			assert.Equal(t, tt.token, token.String())
		})
	}
}

func TestValidateAndParseJWTToken_RejectsOtherAlgorithms(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &jwt.RegisteredClaims{Issuer: testIssuer, Subject: "1"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(raw, testSignKey, testIssuer)
	assert.Error(t, err)
}

func TestParseUserIDFromJWT(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 77, time.Hour, testSignKey)
	require.NoError(t, err)

	userID, err := ParseUserIDFromJWT(token.SignedString)
	require.NoError(t, err)
	assert.Equal(t, int64(77), userID)

	_, err = ParseUserIDFromJWT("garbage")
	assert.Error(t, err)
}
