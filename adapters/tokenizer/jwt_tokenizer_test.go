package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/walletvault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	Secret:   []byte("test-secret-key-for-jwt-signing-0123456789"),
	Issuer:   "walletvault-test",
	Audience: "walletvault-clients",
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenizer(t *testing.T, clock *fakeClock) *JWTTokenizer {
	t.Helper()
	tok, err := NewJWTTokenizer(testConfig, WithClock(clock.Now))
	require.NoError(t, err)
	return tok
}

func TestNewJWTTokenizer_RejectsWeakConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "short secret", cfg: Config{Secret: []byte("short"), Issuer: "i", Audience: "a"}},
		{name: "missing issuer", cfg: Config{Secret: testConfig.Secret, Audience: "a"}},
		{name: "missing audience", cfg: Config{Secret: testConfig.Secret, Issuer: "i"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTTokenizer(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestJWTTokenizer_IssueValidateRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issuedAt}
	tok := newTestTokenizer(t, clock)

	subject := "0xAbC0000000000000000000000000000000000001"
	token, err := tok.Issue(subject, issuedAt)
	require.NoError(t, err)

	got, err := tok.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, subject, got, "subject keeps the case it was issued with")
}

func TestJWTTokenizer_Claims(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := newTestTokenizer(t, &fakeClock{t: issuedAt})

	token, err := tok.Issue("0x1111111111111111111111111111111111111111", issuedAt)
	require.NoError(t, err)

	claims := &AccessClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, testConfig.Issuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{testConfig.Audience}, claims.Audience)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(10*time.Minute), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestJWTTokenizer_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		at      time.Duration
		wantErr error
	}{
		{name: "just issued", at: 0},
		{name: "one second before expiry", at: 9*time.Minute + 59*time.Second},
		{name: "one second after expiry", at: 10*time.Minute + time.Second, wantErr: core.ErrCredentialExpired},
		{name: "an hour later", at: time.Hour, wantErr: core.ErrCredentialExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: issuedAt}
			tok := newTestTokenizer(t, clock)

			token, err := tok.Issue("0x1111111111111111111111111111111111111111", issuedAt)
			require.NoError(t, err)

			clock.t = issuedAt.Add(tt.at)
			_, err = tok.Validate(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJWTTokenizer_SubSecondIssueTime(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 900_000_000, time.UTC)
	clock := &fakeClock{t: issuedAt}
	tok := newTestTokenizer(t, clock)

	token, err := tok.Issue("0x1111111111111111111111111111111111111111", issuedAt)
	require.NoError(t, err)

	claims := &AccessClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	iat := claims.IssuedAt.Time
	assert.Equal(t, issuedAt.Truncate(time.Second), iat.UTC())
	assert.Equal(t, core.CredentialTTL, claims.ExpiresAt.Time.Sub(iat))

	clock.t = iat.Add(core.CredentialTTL - 500*time.Millisecond)
	_, err = tok.Validate(token)
	assert.NoError(t, err)

	clock.t = iat.Add(core.CredentialTTL)
	_, err = tok.Validate(token)
	assert.ErrorIs(t, err, core.ErrCredentialExpired)
}

func TestJWTTokenizer_InvalidTokens(t *testing.T) {
	now := time.Now()
	tok := newTestTokenizer(t, &fakeClock{t: now})

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	registered := func(mut func(*jwt.RegisteredClaims)) *AccessClaims {
		c := &AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0x1111111111111111111111111111111111111111",
			Issuer:    testConfig.Issuer,
			Audience:  jwt.ClaimStrings{testConfig.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		if mut != nil {
			mut(&c.RegisteredClaims)
		}
		return c
	}

	otherTok, err := NewJWTTokenizer(Config{
		Secret:   []byte("a-completely-different-secret-for-tests"),
		Issuer:   testConfig.Issuer,
		Audience: testConfig.Audience,
	})
	require.NoError(t, err)
	foreign, err := otherTok.Issue("0x1111111111111111111111111111111111111111", now)
	require.NoError(t, err)

	valid, err := tok.Issue("0x1111111111111111111111111111111111111111", now)
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + "xx"

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "malformed", token: "header.payload.signature"},
		{name: "wrong secret", token: foreign},
		{name: "tampered signature", token: tampered},
		{name: "wrong issuer", token: sign(jwt.SigningMethodHS256, testConfig.Secret, registered(func(c *jwt.RegisteredClaims) { c.Issuer = "someone-else" }))},
		{name: "wrong audience", token: sign(jwt.SigningMethodHS256, testConfig.Secret, registered(func(c *jwt.RegisteredClaims) { c.Audience = jwt.ClaimStrings{"other"} }))},
		{name: "missing expiry", token: sign(jwt.SigningMethodHS256, testConfig.Secret, registered(func(c *jwt.RegisteredClaims) { c.ExpiresAt = nil }))},
		{name: "missing subject", token: sign(jwt.SigningMethodHS256, testConfig.Secret, registered(func(c *jwt.RegisteredClaims) { c.Subject = "" }))},
		{name: "different hmac size", token: sign(jwt.SigningMethodHS512, testConfig.Secret, registered(nil))},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, registered(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tok.Validate(tt.token)
			assert.ErrorIs(t, err, core.ErrCredentialInvalid)
		})
	}
}

func TestJWTTokenizer_IssueRejectsEmptySubject(t *testing.T) {
	tok := newTestTokenizer(t, &fakeClock{t: time.Now()})

	_, err := tok.Issue("", time.Now())
	assert.ErrorIs(t, err, core.ErrCredentialInvalid)
}
