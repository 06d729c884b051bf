package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts"
)

func testAccount() *accounts.Account {
	return &accounts.Account{
		ID:       uuid.MustParse("7f4f5bd1-8c43-4e43-9a52-6b2b0f1d2c11"),
		Name:     "Alice",
		Username: "alice",
		Email:    "alice@x.com",
	}
}

func TestTokenService_SignAndValidate(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig()
	cfg.Auth.Issuer = "go-accounts"
	cfg.Auth.Audience = []string{"web"}

	ts := accounts.NewTokenService(cfg, nopLogger{}).WithClock(clock.Now)
	assert.Equal(t, 24*time.Hour, ts.Expiration())

	token, err := ts.Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &accounts.AccountClaims{})
	require.NoError(t, err)
	assert.Equal(t, "primary", parsed.Header["kid"])
	assert.Equal(t, "HS256", parsed.Header["alg"])

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "7f4f5bd1-8c43-4e43-9a52-6b2b0f1d2c11", claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "go-accounts", claims.Issuer)
	assert.True(t, clock.Now().Equal(claims.IssuedAt()))
	assert.True(t, clock.Now().Add(24*time.Hour).Equal(claims.Expires()))
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := newFakeClock()
	ts := accounts.NewTokenService(testConfig(), nopLogger{}).WithClock(clock.Now)

	token, err := ts.Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = ts.Validate(token)
	assert.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = ts.Validate(token)
	assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	assert.True(t, accounts.IsUnauthorized(err))
}

func TestTokenService_Rejects(t *testing.T) {
	clock := newFakeClock()
	ts := accounts.NewTokenService(testConfig(), nopLogger{}).WithClock(clock.Now)

	token, err := ts.Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.Auth.SigningKey = "ffffffffffffffffffffffffffffffff"
	forged, err := accounts.NewTokenService(otherCfg, nopLogger{}).WithClock(clock.Now).
		Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "7f4f5bd1-8c43-4e43-9a52-6b2b0f1d2c11",
		"exp": clock.Now().Add(time.Hour).Unix(),
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"tampered", token + "a"},
		{"wrong key", forged},
		{"alg none", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Validate(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
		})
	}
}

func TestTokenService_IssuerAndAudience(t *testing.T) {
	clock := newFakeClock()

	signerCfg := testConfig()
	signerCfg.Auth.Issuer = "other-service"
	token, err := accounts.NewTokenService(signerCfg, nopLogger{}).WithClock(clock.Now).
		Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	verifierCfg := testConfig()
	verifierCfg.Auth.Issuer = "go-accounts"
	_, err = accounts.NewTokenService(verifierCfg, nopLogger{}).WithClock(clock.Now).Validate(token)
	assert.ErrorIs(t, err, accounts.ErrTokenMalformed)

	audienceCfg := testConfig()
	audienceCfg.Auth.Audience = []string{"mobile"}
	_, err = accounts.NewTokenService(audienceCfg, nopLogger{}).WithClock(clock.Now).Validate(token)
	assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
}

func TestTokenService_KeyRotation(t *testing.T) {
	clock := newFakeClock()

	oldCfg := testConfig()
	oldCfg.Auth.KeyID = "2025"
	oldCfg.Auth.SigningKey = "old-signing-key-old-signing-key!"
	oldToken, err := accounts.NewTokenService(oldCfg, nopLogger{}).WithClock(clock.Now).
		Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)

	rotated := testConfig()
	rotated.Auth.KeyID = "2026"
	rotated.Auth.PreviousKeys = map[string]string{"2025": "old-signing-key-old-signing-key!"}
	ts := accounts.NewTokenService(rotated, nopLogger{}).WithClock(clock.Now)

	claims, err := ts.Validate(oldToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	newToken, err := ts.Sign(accounts.NewAccountClaims(testAccount()))
	require.NoError(t, err)
	_, err = ts.Validate(newToken)
	assert.NoError(t, err)

	retired := testConfig()
	retired.Auth.KeyID = "2026"
	_, err = accounts.NewTokenService(retired, nopLogger{}).WithClock(clock.Now).Validate(oldToken)
	assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
}

func TestTokenService_MissingSigningKey(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.SigningKey = ""

	_, err := accounts.NewTokenService(cfg, nopLogger{}).Sign(accounts.NewAccountClaims(testAccount()))
	require.Error(t, err)
	assert.True(t, accounts.IsTransient(err))
}
