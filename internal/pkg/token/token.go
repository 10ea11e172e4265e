// Package token issues and verifies the signed access and refresh tokens used
// to authenticate API callers.
//
// Access and refresh tokens are signed with different secrets, so a leaked
// refresh secret cannot mint access tokens and vice versa. Verify is the only
// entry point that may feed an authorization decision; Decode skips both the
// signature and the expiry check and exists for inspection only.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Kind selects which secret a token is signed and verified with.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

// Claims is the payload carried by both token kinds. Role is empty on refresh
// tokens.
type Claims struct {
	UserID int64       `json:"userId"`
	Role   domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the secrets and lifetimes, loaded once at startup.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	ExtendedTTL   time.Duration
	RefreshTTL    time.Duration
}

// Service signs and verifies tokens. It holds no mutable state.
type Service struct {
	cfg Config
	now func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, used by tests to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.ExtendedTTL <= 0 {
		cfg.ExtendedTTL = cfg.RefreshTTL
	}

	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs {userId, role}. extended selects the long-lived
// lifetime used by "remember me" logins.
func (s *Service) IssueAccessToken(userID int64, role domain.Role, extended bool) (string, error) {
	ttl := s.cfg.AccessTTL
	if extended {
		ttl = s.cfg.ExtendedTTL
	}
	return s.sign(Claims{UserID: userID, Role: role}, ttl, s.cfg.AccessSecret)
}

// IssueRefreshToken signs {userId} with the refresh secret.
func (s *Service) IssueRefreshToken(userID int64) (string, error) {
	return s.sign(Claims{UserID: userID}, s.cfg.RefreshTTL, s.cfg.RefreshSecret)
}

// AccessTTL is the lifetime of a regular access token.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

func (s *Service) sign(claims Claims, ttl time.Duration, secret string) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature against the secret for kind and the expiry
// against the service clock, returning the embedded claims.
func (s *Service) Verify(tokenStr string, kind Kind) (*Claims, error) {
	secret := s.cfg.AccessSecret
	if kind == Refresh {
		secret = s.cfg.RefreshSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s %w", kind, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s %w: %v", kind, ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, fmt.Errorf("%s %w", kind, ErrTokenInvalid)
	}
	if kind == Access && !claims.Role.Valid() {
		return nil, fmt.Errorf("%s %w: unknown role %q", kind, ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}

// Decode extracts claims without checking signature or expiry. Never use the
// result for authorization.
func Decode(tokenStr string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, false
	}
	return claims, true
}
