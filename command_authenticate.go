package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type AuthenticateMessage struct {
	Username   string                          `json:"username"`
	Password   string                          `json:"password"`
	OnResponse func(resp *AuthenticateResponse) `json:"-"`
}

func (e AuthenticateMessage) Type() string { return "account.authenticate" }

func (e AuthenticateMessage) Validate() error {
	return validateWith(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Username, validation.Required.Error("UserName is required")),
			validation.Field(&e.Password, validation.Required.Error("Password is required")),
		)
	})
}

// AuthenticateResponse is the public account view plus a bearer token
type AuthenticateResponse struct {
	Account PublicAccount `json:"user"`
	Token   string        `json:"token"`
}

type AuthenticateHandler struct {
	mgr *Manager
}

func NewAuthenticateHandler(mgr *Manager) *AuthenticateHandler {
	return &AuthenticateHandler{mgr: mgr}
}

func (h *AuthenticateHandler) Execute(ctx context.Context, event AuthenticateMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during authentication",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AuthenticateHandler) execute(ctx context.Context, event AuthenticateMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := h.mgr.repo.Accounts().FindByUsername(ctx, event.Username)
	if err != nil {
		if isRecordNotFound(err) {
			h.loginFailed(ctx, "", event.Username, "unknown username")
			return ErrUsernameNotFound
		}
		return asRichError(err, "failed to look up account")
	}

	if err := h.mgr.hasher.ComparePasswordAndHash(event.Password, account.PasswordHash); err != nil {
		h.loginFailed(ctx, account.ID.String(), account.Username, "password mismatch")
		return asRichError(err, "failed to compare password")
	}

	token, err := h.mgr.tokens.Sign(NewAccountClaims(account))
	if err != nil {
		return asRichError(err, "failed to sign token")
	}

	h.mgr.logger.Info("account authenticated", "account_id", account.ID)
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		AccountID: account.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&AuthenticateResponse{
			Account: account.Public(),
			Token:   token,
		})
	}

	return nil
}

func (h *AuthenticateHandler) loginFailed(ctx context.Context, accountID, username, reason string) {
	h.mgr.logger.Warn("authentication failed", "username", username, "reason", reason)
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		AccountID: accountID,
		Metadata:  map[string]any{"username": username, "reason": reason},
	})
}
