package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/security"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

// UserStore is the part of the credential store the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, hash, algo string) error
}

// TokenService issues and verifies signed tokens.
type TokenService interface {
	IssueTokens(subject string) (security.TokenPair, error)
	Verify(token string) (*security.Claims, error)
}

// EventRecorder counts auth outcomes. Implemented by metrics.Metrics.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// Session is the result of a successful register or login.
type Session struct {
	Tokens security.TokenPair
	User   *entity.User
}

// RegisterInput holds the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service orchestrates registration and password login.
type Service struct {
	users   UserStore
	hasher  security.PasswordHasher
	tokens  TokenService
	logger  *zap.SugaredLogger
	metrics EventRecorder

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserStore, hasher security.PasswordHasher, tokens TokenService, logger *zap.SugaredLogger, rec EventRecorder) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger, metrics: rec}
}

// Register creates the account and returns a fresh token pair.
// Errors: repo.ErrEmailTaken, security.ErrPasswordTooLong, or a wrapped store fault.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, algo, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, err
	}
	u := &entity.User{
		Email:        in.Email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			s.metrics.AuthEvent("register", "conflict")
			return nil, err
		}
		s.metrics.AuthEvent("register", "error")
		return nil, fmt.Errorf("create user: %w", err)
	}
	sess, err := s.session(u)
	if err != nil {
		s.metrics.AuthEvent("register", "error")
		return nil, err
	}
	s.metrics.AuthEvent("register", "success")
	return sess, nil
}

// Login verifies email and password. Unknown email and wrong password both
// yield ErrBadCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// spend the same bcrypt work as a real mismatch
			s.hasher.Verify(s.dummy(), password)
			s.metrics.AuthEvent("login", "rejected")
			return nil, ErrBadCredentials
		}
		s.metrics.AuthEvent("login", "error")
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.metrics.AuthEvent("login", "rejected")
		return nil, ErrBadCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, password)
	}

	sess, err := s.session(u)
	if err != nil {
		s.metrics.AuthEvent("login", "error")
		return nil, err
	}
	s.metrics.AuthEvent("login", "success")
	return sess, nil
}

// rehash is best-effort: the login has already succeeded.
func (s *Service) rehash(ctx context.Context, u *entity.User, password string) {
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warnw("rehash failed", "user_id", u.ID, "err", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash, algo); err != nil {
		s.logger.Warnw("store rehash failed", "user_id", u.ID, "err", err)
		return
	}
	u.PasswordHash, u.PasswordAlgo = hash, algo
	s.logger.Debugw("password rehashed", "user_id", u.ID, "algo", algo)
}

func (s *Service) session(u *entity.User) (*Session, error) {
	pair, err := s.tokens.IssueTokens(strconv.FormatInt(u.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &Session{Tokens: pair, User: u}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, _, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.logger.Warnw("dummy hash failed", "err", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
