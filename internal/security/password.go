package security

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation. Zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost   int
	Logger *zap.SugaredLogger
}

func NewBcryptHasher(cost int, logger *zap.SugaredLogger) BcryptHasher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return BcryptHasher{Cost: cost, Logger: logger}
}

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	if len(pw) > MaxPasswordBytes {
		return "", "", ErrPasswordTooLong
	}
	cost := b.cost()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", "", ErrPasswordTooLong
		}
		return "", "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

// Verify reports whether pw matches hash. A hash that is not a bcrypt digest
// is a storage fault: it is logged and treated as a mismatch.
func (b BcryptHasher) Verify(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) && b.Logger != nil {
		b.Logger.Warnw("malformed password hash", "err", err)
	}
	return false
}

// NeedsRehash is true when hash was produced with a different cost than the configured one.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c != b.cost()
}
