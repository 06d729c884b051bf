package accounts

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// MinPasswordLength is the shortest password accepted on register and reset
const MinPasswordLength = 6

type RegisterAccountMessage struct {
	Name       string                 `json:"name"`
	Username   string                 `json:"username"`
	Email      string                 `json:"email"`
	Password   string                 `json:"password"`
	OnResponse func(account *Account) `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

func (e RegisterAccountMessage) Validate() error {
	return validateWith(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Name, validation.Required.Error("Name is required")),
			validation.Field(&e.Username, validation.Required.Error("UserName is required")),
			validation.Field(&e.Email,
				validation.Required.Error("please provide a valid email address"),
				is.Email.Error("please provide a valid email address"),
			),
			validation.Field(&e.Password,
				validation.Required.Error("Password is required minimun of length 6"),
				validation.Length(MinPasswordLength, 0).Error("Password is required minimun of length 6"),
			),
		)
	})
}

type RegisterAccountHandler struct {
	mgr *Manager
}

func NewRegisterAccountHandler(mgr *Manager) *RegisterAccountHandler {
	return &RegisterAccountHandler{mgr: mgr}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	event.Name = strings.TrimSpace(event.Name)
	event.Username = strings.TrimSpace(event.Username)
	event.Email = normalizeEmail(event.Email)

	if err := event.Validate(); err != nil {
		return err
	}

	hash, err := h.mgr.hasher.HashPassword(event.Password)
	if err != nil {
		return asRichError(err, "failed to hash password")
	}

	code, err := h.mgr.secrets.Generate(SecretSize)
	if err != nil {
		return asRichError(err, "failed to generate verification code")
	}

	now := h.mgr.timestamp()
	account := &Account{
		Name:             event.Name,
		Username:         event.Username,
		Email:            event.Email,
		PasswordHash:     hash,
		VerificationCode: &code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if h.mgr.hashedIDs {
		id, err := h.mgr.hashID(account.Email)
		if err != nil {
			h.mgr.logger.Warn("hashed id failed, using random id", "email", account.Email, "error", err)
		} else {
			account.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	err = h.mgr.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := h.mgr.repo.Accounts()

		// fast path, the unique indexes still guard the insert
		if _, err := repo.FindByUsernameTx(ctx, tx, account.Username); err == nil {
			return ErrUsernameTaken
		} else if !isRecordNotFound(err) {
			return err
		}

		if _, err := repo.FindByEmailTx(ctx, tx, account.Email); err == nil {
			return ErrEmailTaken
		} else if !isRecordNotFound(err) {
			return err
		}

		created, err := repo.InsertTx(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		return nil
	})

	if err != nil {
		return asRichError(err, "account registration transaction failed")
	}

	h.mgr.logger.Info("account registered", "account_id", account.ID, "username", account.Username)

	h.mgr.notify(ctx, h.mgr.composer.Verification(account, code))
	h.mgr.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		AccountID: account.ID.String(),
		ToState:   StateUnverified,
	})

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
