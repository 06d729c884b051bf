package config

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/goliatone/go-accounts"
)

// Config is the service configuration, loaded by go-config. It
// implements accounts.Config.
type Config struct {
	Debug    bool     `koanf:"debug" json:"debug"`
	Listen   string   `koanf:"listen" json:"listen"`
	Domain   string   `koanf:"domain" json:"domain"`
	DSN      string   `koanf:"dsn" json:"dsn"`
	Auth     Auth     `koanf:"auth" json:"auth"`
	SMTP     SMTP     `koanf:"smtp" json:"smtp"`
	Notifier Notifier `koanf:"notifier" json:"notifier"`
	Activity Activity `koanf:"activity" json:"activity"`
}

type Auth struct {
	SigningKey      string            `koanf:"signing_key" json:"signing_key"`
	KeyID           string            `koanf:"key_id" json:"key_id"`
	PreviousKeys    map[string]string `koanf:"previous_keys" json:"previous_keys"`
	Issuer          string            `koanf:"issuer" json:"issuer"`
	Audience        []string          `koanf:"audience" json:"audience"`
	TokenExpiration int               `koanf:"token_expiration" json:"token_expiration"`
	ResetTTL        string            `koanf:"reset_ttl" json:"reset_ttl"`
	BcryptCost      int               `koanf:"bcrypt_cost" json:"bcrypt_cost"`
	HashedIDs       bool              `koanf:"hashed_ids" json:"hashed_ids"`
}

type SMTP struct {
	Host     string `koanf:"host" json:"host"`
	Port     int    `koanf:"port" json:"port"`
	Username string `koanf:"username" json:"username"`
	Password string `koanf:"password" json:"-"`
	From     string `koanf:"from" json:"from"`
}

type Notifier struct {
	Workers   int    `koanf:"workers" json:"workers"`
	QueueSize int    `koanf:"queue_size" json:"queue_size"`
	Timeout   string `koanf:"timeout" json:"timeout"`
}

// Activity configures the activity log
type Activity struct {
	Channel string `koanf:"channel" json:"channel"`
}

var _ accounts.Config = (*Config)(nil)

// Defaults returns a configuration suitable for local development
func Defaults() *Config {
	return &Config{
		Listen: ":5000",
		Domain: "http://localhost:5000/users",
		DSN:    "file:accounts.db?cache=shared",
		Auth: Auth{
			KeyID:           accounts.DefaultSigningKeyID,
			TokenExpiration: accounts.DefaultTokenExpiration,
			ResetTTL:        "1h",
			BcryptCost:      accounts.DefaultBcryptCost,
		},
		SMTP: SMTP{
			Port: 587,
		},
		Notifier: Notifier{
			Workers:   2,
			QueueSize: 64,
			Timeout:   "30s",
		},
		Activity: Activity{
			Channel: "accounts",
		},
	}
}

// ApplyDefaults fills zero values from Defaults
func (c *Config) ApplyDefaults() *Config {
	def := Defaults()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Domain == "" {
		c.Domain = def.Domain
	}
	if c.DSN == "" {
		c.DSN = def.DSN
	}
	if c.Auth.KeyID == "" {
		c.Auth.KeyID = def.Auth.KeyID
	}
	if c.Auth.TokenExpiration == 0 {
		c.Auth.TokenExpiration = def.Auth.TokenExpiration
	}
	if c.Auth.ResetTTL == "" {
		c.Auth.ResetTTL = def.Auth.ResetTTL
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = def.Auth.BcryptCost
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = def.SMTP.Port
	}
	if c.Notifier.Workers == 0 {
		c.Notifier.Workers = def.Notifier.Workers
	}
	if c.Notifier.QueueSize == 0 {
		c.Notifier.QueueSize = def.Notifier.QueueSize
	}
	if c.Notifier.Timeout == "" {
		c.Notifier.Timeout = def.Notifier.Timeout
	}
	if c.Activity.Channel == "" {
		c.Activity.Channel = def.Activity.Channel
	}

	return c
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Listen, validation.Required),
		validation.Field(&c.Domain, validation.Required, is.URL),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.Auth),
		validation.Field(&c.Notifier),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&a.TokenExpiration, validation.Min(1)),
		validation.Field(&a.ResetTTL, validation.Required, validation.By(isDuration)),
		validation.Field(&a.BcryptCost, validation.Min(4), validation.Max(31)),
	)
}

func (n Notifier) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Workers, validation.Min(1)),
		validation.Field(&n.QueueSize, validation.Min(1)),
		validation.Field(&n.Timeout, validation.By(isDuration)),
	)
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a valid duration")
	}
	return nil
}

func (c Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c Config) GetSigningKeyID() string {
	return c.Auth.KeyID
}

func (c Config) GetPreviousSigningKeys() map[string]string {
	return c.Auth.PreviousKeys
}

func (c Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

func (c Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c Config) GetAudience() []string {
	return c.Auth.Audience
}

// GetResetTokenTTL returns zero for unparsable values, the manager then
// falls back to its default.
func (c Config) GetResetTokenTTL() time.Duration {
	return parseDuration(c.Auth.ResetTTL)
}

func (c Config) GetDomain() string {
	return c.Domain
}

func (c Config) GetBcryptCost() int {
	return c.Auth.BcryptCost
}

func (c Config) GetNotifierTimeout() time.Duration {
	return parseDuration(c.Notifier.Timeout)
}

func parseDuration(expr string) time.Duration {
	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0
	}
	return d
}
