package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/internal/eth"
	"github.com/layer-3/walletvault/ports"
)

// AuthService authenticates wallets against the fixed challenge string
// and issues credentials. It holds no mutable state.
type AuthService struct {
	challenge string
	digest    []byte
	tokenizer ports.Tokenizer
	logger    *slog.Logger
	now       func() time.Time
}

// AuthOption customises an AuthService
type AuthOption func(*AuthService)

// WithAuthClock sets the time source used as the credential issue time
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new authentication service for challenge
func NewAuthService(challenge string, tokenizer ports.Tokenizer, logger *slog.Logger, opts ...AuthOption) (*AuthService, error) {
	if challenge == "" {
		return nil, fmt.Errorf("challenge string is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &AuthService{
		challenge: challenge,
		digest:    eth.PersonalMessageHash(challenge),
		tokenizer: tokenizer,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Challenge returns the string clients sign to authenticate
func (s *AuthService) Challenge() string {
	return s.challenge
}

// Authenticate recovers the signer of the challenge and issues a credential
// when it matches claimedAddress. Every failure is reported as
// core.ErrAuthenticationFailed; the cause is only logged.
func (s *AuthService) Authenticate(ctx context.Context, claimedAddress, signature string) (core.Credential, error) {
	if err := s.verifyClaim(claimedAddress, signature); err != nil {
		s.logger.DebugContext(ctx, "authentication rejected", "address", claimedAddress, "reason", err)
		return core.Credential{}, core.ErrAuthenticationFailed
	}

	// Same precision as the token's iat/exp
	issuedAt := s.now().Truncate(time.Second)
	token, err := s.tokenizer.Issue(claimedAddress, issuedAt)
	if err != nil {
		return core.Credential{}, fmt.Errorf("failed to issue credential: %w", err)
	}

	s.logger.InfoContext(ctx, "wallet authenticated", "address", claimedAddress)

	return core.Credential{
		Token:     token,
		Subject:   claimedAddress,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(core.CredentialTTL),
	}, nil
}

func (s *AuthService) verifyClaim(claimedAddress, signature string) error {
	recovered, err := eth.RecoverHex(s.digest, signature)
	if err != nil {
		return err
	}
	if !core.SameAddress(claimedAddress, recovered.Hex()) {
		return fmt.Errorf("recovered %s: %w", recovered.Hex(), core.ErrAddressMismatch)
	}
	return nil
}

// ValidateCredential checks a presented credential and returns its subject.
// Expired and invalid credentials keep their distinct errors for logging.
func (s *AuthService) ValidateCredential(ctx context.Context, token string) (string, error) {
	subject, err := s.tokenizer.Validate(token)
	if err != nil {
		s.logger.DebugContext(ctx, "credential rejected", "reason", err)
		return "", err
	}
	return subject, nil
}
