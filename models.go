package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountState is derived from the account fields, it is never stored
type AccountState = string

const (
	// StateUnverified the account exists but the email was not confirmed
	StateUnverified AccountState = "unverified"
	// StateVerified the account confirmed its email
	StateVerified AccountState = "verified"
	// StateResetPending a password reset token is live
	StateResetPending AccountState = "reset_pending"
)

// Account is the account model
type Account struct {
	bun.BaseModel    `bun:"table:accounts,alias:acc"`
	ID               uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name             string     `bun:"name,notnull" json:"name"`
	Username         string     `bun:"username,notnull,unique" json:"username"`
	Email            string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	Verified         bool       `bun:"verified,notnull" json:"verified"`
	VerificationCode *string    `bun:"verification_code,unique" json:"-"`
	ResetToken       *string    `bun:"reset_token,unique" json:"-"`
	ResetExpiresAt   *time.Time `bun:"reset_expires_at" json:"-"`
	CreatedAt        time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// State returns the lifecycle state at the given instant
func (a *Account) State(now time.Time) AccountState {
	if !a.Verified {
		return StateUnverified
	}
	if a.HasActiveReset(now) {
		return StateResetPending
	}
	return StateVerified
}

// HasActiveReset reports whether a reset token is set and not expired
func (a *Account) HasActiveReset(now time.Time) bool {
	return a.ResetToken != nil && a.ResetExpiresAt != nil && now.Before(*a.ResetExpiresAt)
}

// MarkVerified consumes the verification code
func (a *Account) MarkVerified(now time.Time) {
	a.Verified = true
	a.VerificationCode = nil
	a.UpdatedAt = now
}

// StartReset stores a new reset token, replacing any previous one
func (a *Account) StartReset(token string, expiresAt, now time.Time) {
	a.ResetToken = &token
	a.ResetExpiresAt = &expiresAt
	a.UpdatedAt = now
}

// CompleteReset swaps the password digest and clears the reset token
func (a *Account) CompleteReset(passwordHash string, now time.Time) {
	a.PasswordHash = passwordHash
	a.ResetToken = nil
	a.ResetExpiresAt = nil
	a.UpdatedAt = now
}

// Public returns the view of the account that is safe to expose
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Name:     a.Name,
	}
}

// PublicAccount holds the attributes returned to authenticated clients
type PublicAccount struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
}
