package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFEnsureTokenIsStablePerSession(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "sess-1", values: map[string]string{}}

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCSRFVerifyToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "sess-1", values: map[string]string{}}
	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	assert.NoError(t, m.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), nil, token), ErrCSRFTokenMissing)
}

func TestCSRFVerifyWithoutIssuedToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "sess-2", values: map[string]string{}}

	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "anything"), ErrCSRFTokenMissing)
}

func TestCSRFTokensDifferAcrossSessions(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	a := &Session{ID: "sess-a", values: map[string]string{}}
	b := &Session{ID: "sess-b", values: map[string]string{}}

	tokenA, err := m.EnsureToken(context.Background(), a)
	require.NoError(t, err)
	tokenB, err := m.EnsureToken(context.Background(), b)
	require.NoError(t, err)

	assert.NotEqual(t, tokenA, tokenB)
}
