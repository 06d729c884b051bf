package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"resetPasswordToken" doc:"Reset password token"`
	Password string `json:"password" doc:"New password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "account.password_reset.finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validateWith(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Password,
				validation.Required.Error("Password is required minimun of length 6"),
				validation.Length(MinPasswordLength, 0).Error("Password is required minimun of length 6"),
			),
		)
	})
}

type FinalizePasswordResetHandler struct {
	mgr *Manager
}

func NewFinalizePasswordResetHandler(mgr *Manager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{mgr: mgr}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if event.Token == "" {
		return ErrInvalidResetToken
	}

	if err := event.Validate(); err != nil {
		return err
	}

	hash, err := h.mgr.hasher.HashPassword(event.Password)
	if err != nil {
		return asRichError(err, "failed to hash password")
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var account *Account

	err = h.mgr.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := h.mgr.repo.Accounts()
		now := h.mgr.timestamp()

		// expired and unknown tokens look the same to the caller
		found, err := repo.FindByResetTokenTx(ctx, tx, event.Token, now)
		if err != nil {
			if isRecordNotFound(err) {
				return ErrInvalidResetToken
			}
			return err
		}

		found.CompleteReset(hash, now)

		if account, err = repo.SaveTx(ctx, tx, found); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		return asRichError(err, "failed to finalize password reset")
	}

	h.mgr.logger.Info("password reset completed", "account_id", account.ID)

	h.mgr.notify(ctx, h.mgr.composer.PasswordChanged(account))
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		AccountID: account.ID.String(),
		FromState: StateResetPending,
		ToState:   account.State(h.mgr.timestamp()),
	})

	return nil
}
