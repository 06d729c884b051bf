package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the account store. Lookups return a record not found error
// when nothing matches, Insert and Save map unique index violations to
// ErrUsernameTaken or ErrEmailTaken.
type Accounts interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	FindByVerificationCode(ctx context.Context, code string) (*Account, error)
	FindByVerificationCodeTx(ctx context.Context, tx bun.IDB, code string) (*Account, error)
	FindByResetToken(ctx context.Context, token string, notExpiredAt time.Time) (*Account, error)
	FindByResetTokenTx(ctx context.Context, tx bun.IDB, token string, notExpiredAt time.Time) (*Account, error)
	Insert(ctx context.Context, account *Account) (*Account, error)
	InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	Save(ctx context.Context, account *Account) (*Account, error)
	SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
}

type accounts struct {
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository returns a bun backed Accounts store
func NewAccountsRepository(db *bun.DB) Accounts {
	return &accounts{db: db}
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *accounts) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	return a.findOne(ctx, tx, "id", id)
}

func (a *accounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return a.FindByUsernameTx(ctx, a.db, username)
}

func (a *accounts) FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error) {
	return a.findOne(ctx, tx, "username", strings.TrimSpace(username))
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.findOne(ctx, tx, "email", normalizeEmail(email))
}

func (a *accounts) FindByVerificationCode(ctx context.Context, code string) (*Account, error) {
	return a.FindByVerificationCodeTx(ctx, a.db, code)
}

func (a *accounts) FindByVerificationCodeTx(ctx context.Context, tx bun.IDB, code string) (*Account, error) {
	if code == "" {
		return nil, notFound("verification_code", code)
	}
	return a.findOne(ctx, tx, "verification_code", code)
}

func (a *accounts) FindByResetToken(ctx context.Context, token string, notExpiredAt time.Time) (*Account, error) {
	return a.FindByResetTokenTx(ctx, a.db, token, notExpiredAt)
}

func (a *accounts) FindByResetTokenTx(ctx context.Context, tx bun.IDB, token string, notExpiredAt time.Time) (*Account, error) {
	if token == "" {
		return nil, notFound("reset_token", token)
	}

	record, err := a.findOne(ctx, tx, "reset_token", token)
	if err != nil {
		return nil, err
	}

	// expiry is compared here, dialects encode timestamps differently
	if !record.HasActiveReset(notExpiredAt) {
		return nil, notFound("reset_token", token)
	}

	return record, nil
}

func (a *accounts) Insert(ctx context.Context, account *Account) (*Account, error) {
	return a.InsertTx(ctx, a.db, account)
}

func (a *accounts) InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	if _, err := tx.NewInsert().Model(account).Exec(ctx); err != nil {
		return nil, mapWriteError(err, "failed to insert account")
	}

	return account, nil
}

func (a *accounts) Save(ctx context.Context, account *Account) (*Account, error) {
	return a.SaveTx(ctx, a.db, account)
}

func (a *accounts) SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = time.Now().UTC()
	}

	res, err := tx.NewUpdate().Model(account).WherePK().Exec(ctx)
	if err != nil {
		return nil, mapWriteError(err, "failed to save account")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, notFound("id", account.ID)
	}

	return account, nil
}

func (a *accounts) findOne(ctx context.Context, tx bun.IDB, column string, value any) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(column, value)
		}
		return nil, transient(err, "failed to query accounts")
	}

	return record, nil
}

func notFound(column string, value any) error {
	return repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"column": column,
			"value":  fmt.Sprint(value),
		})
}

// isRecordNotFound recognises not found errors from this store and
// from other Accounts implementations built on go-errors.
func isRecordNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || goerrors.IsNotFound(err)
}

// mapWriteError turns unique index violations into conflicts
func mapWriteError(err error, msg string) error {
	lower := strings.ToLower(err.Error())
	unique := strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate key")
	if !unique {
		return transient(err, msg)
	}

	switch {
	case strings.Contains(lower, "username"):
		return ErrUsernameTaken
	case strings.Contains(lower, "email"):
		return ErrEmailTaken
	default:
		return goerrors.Wrap(err, goerrors.CategoryConflict, "account already exists").
			WithCode(goerrors.CodeConflict)
	}
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = normalizeEmail(record.Email)
	record.Username = strings.TrimSpace(record.Username)

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
