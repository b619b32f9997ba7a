// Package tokens mints and verifies the short-lived HS256 credentials this
// service presents to the main API.
package tokens

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretNotConfigured = errors.New("jwt secret not configured")
	ErrInvalidToken        = errors.New("invalid internal api token")
)

const (
	// TokenTTL is the lifetime of a minted credential.
	TokenTTL = 15 * time.Minute

	// RefreshBuffer is how long before expiry a cached credential stops
	// being handed out and a fresh one is minted instead.
	RefreshBuffer = 2 * time.Minute
)

// Claims are the registered claims carried by an internal service token.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager mints internal service credentials and keeps at most one minted
// token cached. Safe for concurrent use.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	subject  string
	logger   *slog.Logger

	now func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewManager creates a Manager for the given signing secret and claim set.
// subject is the name of the calling service.
func NewManager(secret, issuer, audience, subject string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		subject:  subject,
		logger:   logger,
		now:      time.Now,
	}
}

// Token returns a credential valid for at least RefreshBuffer. A cached
// token is reused as long as it stays inside that window; otherwise a new
// one is minted, self-verified and cached.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.expiry.Sub(m.now()) > RefreshBuffer {
		m.logger.Debug("using cached internal token",
			slog.Duration("time_until_expiry", m.expiry.Sub(m.now())))
		return m.token, nil
	}

	token, err := m.mint()
	if err != nil {
		return "", err
	}

	// Trust only the expiry the verified token actually encodes, not the
	// instant computed before signing.
	claims, err := m.Verify(token)
	if err != nil {
		return "", err
	}

	m.token = token
	m.expiry = claims.ExpiresAt.Time

	m.logger.Info("minted new internal token",
		slog.String("subject", m.subject),
		slog.Time("expires_at", m.expiry))

	return m.token, nil
}

// Invalidate drops the cached credential so the next Token call mints a
// fresh one. Called after the main API rejects a request with 401.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiry = time.Time{}
}

func (m *Manager) mint() (string, error) {
	if len(m.secret) == 0 {
		return "", ErrSecretNotConfigured
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			Subject:   m.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature and audience (and issuer when configured) and
// returns the decoded claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, ErrSecretNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(m.audience),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		m.logger.Error("internal token verification failed", slog.String("error", err.Error()))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
