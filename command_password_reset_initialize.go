package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"alice@example.com" doc:"Account email"`
}

func (e InitializePasswordResetMessage) Type() string { return "account.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validateWith(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Email,
				validation.Required.Error("please provide a valid email address"),
				is.Email.Error("please provide a valid email address"),
			),
		)
	})
}

type InitializePasswordResetHandler struct {
	mgr *Manager
}

func NewInitializePasswordResetHandler(mgr *Manager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{mgr: mgr}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	event.Email = normalizeEmail(event.Email)

	if err := event.Validate(); err != nil {
		return err
	}

	token, err := h.mgr.secrets.Generate(SecretSize)
	if err != nil {
		return asRichError(err, "failed to generate reset token")
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var account *Account
	var fromState AccountState

	err = h.mgr.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := h.mgr.repo.Accounts()

		found, err := repo.FindByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if isRecordNotFound(err) {
				return ErrEmailNotFound
			}
			return err
		}

		now := h.mgr.timestamp()
		fromState = found.State(now)

		// a previous token, consumed or not, is overwritten
		found.StartReset(token, now.Add(h.mgr.resetTTL), now)

		if account, err = repo.SaveTx(ctx, tx, found); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		return asRichError(err, "failed to initialize password reset")
	}

	h.mgr.logger.Info("password reset requested", "account_id", account.ID, "expires_at", account.ResetExpiresAt)

	h.mgr.notify(ctx, h.mgr.composer.PasswordReset(account, token))
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetRequest,
		AccountID: account.ID.String(),
		FromState: fromState,
		ToState:   StateResetPending,
	})

	return nil
}
