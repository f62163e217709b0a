package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tags a token as short-lived access or long-lived refresh.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the signed payload: subject, expiry, issued-at and kind.
type Claims struct {
	Type TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what register and login hand back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenConfig is built once at startup and never mutated.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer signs and verifies HS256 tokens. It holds no mutable state and
// is safe for concurrent use.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssueTokens creates an access and a refresh token for subject.
func (s *TokenIssuer) IssueTokens(subject string) (TokenPair, error) {
	access, err := s.sign(subject, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(subject, KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenIssuer) sign(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks structure, algorithm, signature and expiry and returns the
// claims. Errors are ErrTokenExpired or ErrTokenInvalid, wrapping the cause.
func (s *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	switch claims.Type {
	case KindAccess, KindRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrTokenInvalid, claims.Type)
	}
	return claims, nil
}
