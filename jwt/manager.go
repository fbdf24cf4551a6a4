package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired is returned when the signature verifies but the token's
	// expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrSignatureInvalid is returned for forged tokens and for any
	// malformed input: wrong encoding, truncated payload, unexpected
	// signing algorithm.
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Config configures a Manager. Secret is the process-wide symmetric
// signing key; it is read-only after construction.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Claims is the payload of every issued token: the username as subject,
// the canonical role, and the numeric user id. Refresh tokens carry the
// subject only.
type Claims struct {
	UserID int64  `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with HMAC-SHA256. It holds
// no mutable state and is safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a signing secret")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = cfg.AccessTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a token for subject with the given claims and ttl. The
// issued-at is now and the expiry now+ttl; a zero or negative ttl
// produces a token that is already expired under Verify.
func (m *Manager) Issue(subject, role string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// IssueAccess signs a short-lived access token carrying subject, role,
// and userId claims.
func (m *Manager) IssueAccess(subject, role string, userID int64) (string, error) {
	return m.Issue(subject, role, userID, m.config.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token carrying the subject
// only.
func (m *Manager) IssueRefresh(subject string) (string, error) {
	return m.Issue(subject, "", 0, m.config.RefreshTTL)
}

// Verify checks the signature and expiry of tokenStr and returns the
// decoded claims. Failures are always [ErrExpired] or
// [ErrSignatureInvalid]; Verify never mutates state.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrSignatureInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrSignatureInvalid
	}
	return claims, nil
}
