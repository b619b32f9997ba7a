package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestManager() *Manager {
	return NewManager(testSecret, "main-api", "internal-services", "summary-api", nil)
}

func TestToken_MintAndVerify(t *testing.T) {
	m := newTestManager()

	token, err := m.Token()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "summary-api", claims.Subject)
	assert.Equal(t, "main-api", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestToken_ReusedInsideRefreshBuffer(t *testing.T) {
	m := newTestManager()

	first, err := m.Token()
	require.NoError(t, err)

	second, err := m.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second, "cached token should be returned byte-identical")
}

func TestToken_RefreshedNearExpiry(t *testing.T) {
	m := newTestManager()

	first, err := m.Token()
	require.NoError(t, err)

	// Move the clock to just inside the refresh buffer. The expiry of the
	// cached token stays fixed, so the manager must mint again.
	m.now = func() time.Time {
		return time.Now().Add(TokenTTL - RefreshBuffer + time.Second)
	}

	second, err := m.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "token near expiry must be replaced")
}

func TestToken_InvalidateForcesNewMint(t *testing.T) {
	m := newTestManager()

	first, err := m.Token()
	require.NoError(t, err)

	// Simulate an upstream 401: the cached token is still well within its
	// TTL but must not be reused. Advance the clock so iat/exp differ and
	// the minted string cannot collide.
	m.Invalidate()
	m.now = func() time.Time { return time.Now().Add(2 * time.Second) }

	second, err := m.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestToken_MissingSecret(t *testing.T) {
	m := NewManager("", "main-api", "internal-services", "summary-api", nil)

	_, err := m.Token()
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}

func TestVerify_WrongSecret(t *testing.T) {
	m := newTestManager()
	token, err := m.Token()
	require.NoError(t, err)

	other := NewManager("a-completely-different-secret-value", "main-api", "internal-services", "summary-api", nil)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongAudience(t *testing.T) {
	m := newTestManager()
	token, err := m.Token()
	require.NoError(t, err)

	other := NewManager(testSecret, "main-api", "some-other-audience", "summary-api", nil)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
