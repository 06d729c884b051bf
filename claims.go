package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountClaims is the token payload: the public account attributes
// plus the registered claims.
type AccountClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// NewAccountClaims returns claims for account, without timing fields
func NewAccountClaims(account *Account) *AccountClaims {
	id := account.ID.String()
	return &AccountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id,
		},
		AccountID: id,
		Username:  account.Username,
		Email:     account.Email,
		Name:      account.Name,
	}
}

// UserID returns the account id
func (c *AccountClaims) UserID() string {
	if c.AccountID != "" {
		return c.AccountID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *AccountClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *AccountClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
