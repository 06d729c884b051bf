package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts/config"
)

func validConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Auth.SigningKey = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	assert.Equal(t, 24, cfg.GetTokenExpiration())
	assert.Equal(t, time.Hour, cfg.GetResetTokenTTL())
	assert.Equal(t, 10, cfg.GetBcryptCost())
	assert.Equal(t, "primary", cfg.GetSigningKeyID())
	assert.Equal(t, "http://localhost:5000/users", cfg.GetDomain())
	assert.Equal(t, 30*time.Second, cfg.GetNotifierTimeout())
	assert.Equal(t, "accounts", cfg.Activity.Channel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid", func(*config.Config) {}, false},
		{"missing signing key", func(c *config.Config) { c.Auth.SigningKey = "" }, true},
		{"short signing key", func(c *config.Config) { c.Auth.SigningKey = "short" }, true},
		{"bad reset ttl", func(c *config.Config) { c.Auth.ResetTTL = "soon" }, true},
		{"bcrypt cost too high", func(c *config.Config) { c.Auth.BcryptCost = 40 }, true},
		{"missing domain", func(c *config.Config) { c.Domain = "" }, true},
		{"no workers", func(c *config.Config) { c.Notifier.Workers = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := (&config.Config{
		Domain: "https://accounts.example.com/users",
		Auth:   config.Auth{SigningKey: "0123456789abcdef", ResetTTL: "30m"},
	}).ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://accounts.example.com/users", cfg.GetDomain())
	assert.Equal(t, 30*time.Minute, cfg.GetResetTokenTTL())
	assert.Equal(t, ":5000", cfg.Listen)
	assert.Equal(t, 2, cfg.Notifier.Workers)
	assert.Equal(t, "accounts", cfg.Activity.Channel)
}

func TestResetTTLUnparsable(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.ResetTTL = "soon"
	assert.Equal(t, time.Duration(0), cfg.GetResetTokenTTL())
}
