package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/pkg/clock"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	signer := NewSignedURLSigner("secret", time.Hour, clk)
	token, expiresAt, err := signer.Generate("course:cs101", "syllabi/cs101.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	owner, path, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "course:cs101", owner)
	require.Equal(t, "syllabi/cs101.pdf", path)
}

func TestSignedURLSignerExpired(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	signer := NewSignedURLSigner("secret", time.Minute, clk)
	token, _, err := signer.Generate("course:cs101", "syllabi/cs101.pdf")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, _, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour, nil)
	token, _, err := signer.Generate("course:cs101", "syllabi/cs101.pdf")
	require.NoError(t, err)

	other := NewSignedURLSigner("different", time.Hour, nil)
	_, _, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
