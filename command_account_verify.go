package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyAccountMessage struct {
	Code string `json:"code"`
}

func (e VerifyAccountMessage) Type() string { return "account.verify" }

type VerifyAccountHandler struct {
	mgr *Manager
}

func NewVerifyAccountHandler(mgr *Manager) *VerifyAccountHandler {
	return &VerifyAccountHandler{mgr: mgr}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	if event.Code == "" {
		return ErrInvalidVerificationCode
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	var account *Account
	err := h.mgr.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := h.mgr.repo.Accounts()

		found, err := repo.FindByVerificationCodeTx(ctx, tx, event.Code)
		if err != nil {
			if isRecordNotFound(err) {
				return ErrInvalidVerificationCode
			}
			return err
		}

		found.MarkVerified(h.mgr.timestamp())

		if account, err = repo.SaveTx(ctx, tx, found); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		return asRichError(err, "account verification transaction failed")
	}

	h.mgr.logger.Info("account verified", "account_id", account.ID)
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountVerified,
		AccountID: account.ID.String(),
		FromState: StateUnverified,
		ToState:   StateVerified,
	})

	return nil
}
