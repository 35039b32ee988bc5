package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/ports"
)

// MinSecretLength is the shortest HMAC secret the tokenizer accepts
const MinSecretLength = 32

// Config holds the process-wide credential parameters
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Option customises a JWTTokenizer
type Option func(*JWTTokenizer)

// WithClock sets the time source used when validating expiry
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) {
		j.now = now
	}
}

// JWTTokenizer implements the Tokenizer interface using HS256 signed JWTs
type JWTTokenizer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(cfg Config, opts ...Option) (*JWTTokenizer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}

	j := &JWTTokenizer{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      core.CredentialTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	j.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return j.now() }),
	)

	return j, nil
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// Issue converts a subject into a signed access token expiring after the fixed TTL.
// JWT dates have whole-second precision, so issuedAt is truncated to the
// second before both iat and exp are derived from it.
func (j *JWTTokenizer) Issue(subject string, issuedAt time.Time) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", core.ErrCredentialInvalid)
	}
	issuedAt = issuedAt.Truncate(time.Second)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate parses an access token and returns the subject it was issued to
func (j *JWTTokenizer) Validate(tokenStr string) (string, error) {
	token, err := j.parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", core.ErrCredentialExpired
		}
		return "", fmt.Errorf("%w: %v", core.ErrCredentialInvalid, err)
	}

	if !token.Valid {
		return "", core.ErrCredentialInvalid
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims type", core.ErrCredentialInvalid)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", core.ErrCredentialInvalid)
	}

	return claims.Subject, nil
}
