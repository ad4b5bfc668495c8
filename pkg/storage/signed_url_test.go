package storage

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "class_attendance/cse-a.csv")
	require.NoError(t, err)

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "class_attendance/cse-a.csv", path)
	assert.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignedURLExpiry(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.now = func() time.Time { return clock }

	token, _, err := signer.Generate("job-1", "a.csv")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	jobID, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
}

func TestSignedURLRejectsForeignTokens(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	other := NewSignedURLSigner("other", time.Hour)
	forged, _, err := other.Generate("job-1", "a.csv")
	require.NoError(t, err)
	_, _, _, err = signer.Parse(forged, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, _, err = signer.Parse(access, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = signer.Parse("not-a-token", false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLGenerateRequiresInputs(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("job-1", "a.csv")
	assert.Error(t, err)
	_, _, err = NewSignedURLSigner("secret", time.Hour).Generate("", "a.csv")
	assert.Error(t, err)
}
