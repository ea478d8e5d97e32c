// Package services contains server-side business logic. AuthService checks
// a login/password pair against the credential store and, on success, mints
// a signed session token.
package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// dummyPasswordHash is verified when the login does not exist so that an
// unknown login costs roughly as much as a wrong password. It is a bcrypt
// hash of no real password and never matches.
//
//nolint:gosec // G101: not a credential.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// SignInRequest carries the caller's credentials. Password is plaintext and
// must never be logged or stored.
type SignInRequest struct {
	Login    string
	Password string
}

// SignInResult is returned on successful sign-in.
type SignInResult struct {
	Token string
}

// TokenIssuer mints signed session tokens.
type TokenIssuer interface {
	Issue(claims auth.SessionClaims, subject string, ttl time.Duration) (string, error)
}

// AuthService composes the credential store, the password verifier and the
// token issuer. It keeps no per-request state and is safe for concurrent use.
type AuthService struct {
	users     users.Repository
	verifier  auth.PasswordVerifier
	issuer    TokenIssuer
	tokenTTL  time.Duration
	dummyHash string
	logger    logging.Logger
	metrics   *metrics.Metrics
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(s *AuthService) { s.logger = l.With("module", "auth_service") }
}

// WithMetrics records every sign-in outcome on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithDummyHash replaces the hash verified for unknown logins. It should be
// produced by the same scheme and cost as real records.
func WithDummyHash(hash string) Option {
	return func(s *AuthService) {
		if hash != "" {
			s.dummyHash = hash
		}
	}
}

// NewAuthService wires the collaborators. tokenTTL is the lifetime of every
// issued token.
func NewAuthService(repo users.Repository, verifier auth.PasswordVerifier, issuer TokenIssuer, tokenTTL time.Duration, opts ...Option) *AuthService {
	s := &AuthService{
		users:     repo,
		verifier:  verifier,
		issuer:    issuer,
		tokenTTL:  tokenTTL,
		dummyHash: dummyPasswordHash,
		logger:    logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn verifies req and returns a session token.
//
// An unknown login and a wrong password both yield
// common.ErrorInvalidCredentials, the same value with the same message.
// Storage and signing failures yield common.ErrorInternal; their causes are
// logged here and never returned.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	start := time.Now()

	res, err := s.signIn(ctx, req)

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials):
		outcome = metrics.OutcomeInvalidCredentials
	case err != nil:
		outcome = metrics.OutcomeInternalError
	}
	s.metrics.RecordSignIn(outcome, time.Since(start))

	return res, err
}

func (s *AuthService) signIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if req.Login == "" || req.Password == "" {
		return nil, common.ErrorInvalidCredentials
	}

	record, err := s.users.FindByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Result ignored: only the time spent matters.
			_, _ = s.verifier.Verify(req.Password, s.dummyHash)
			s.logger.Info(ctx, "sign-in rejected", "login", req.Login)
			return nil, common.ErrorInvalidCredentials
		}
		s.logger.Error(ctx, "credential lookup failed", "login", req.Login, "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.verifier.Verify(req.Password, record.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "password verification failed", "user_id", record.UserID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		s.logger.Info(ctx, "sign-in rejected", "login", req.Login)
		return nil, common.ErrorInvalidCredentials
	}

	claims := auth.SessionClaims{Username: record.UserName, Email: record.Email}
	token, err := s.issuer.Issue(claims, strconv.FormatInt(record.UserID, 10), s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "user_id", record.UserID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "sign-in succeeded", "user_id", record.UserID)
	return &SignInResult{Token: token}, nil
}
