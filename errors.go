package accounts

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidationFailed        = "VALIDATION_FAILED"
	TextCodeUsernameTaken           = "USERNAME_TAKEN"
	TextCodeEmailTaken              = "EMAIL_TAKEN"
	TextCodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	TextCodeInvalidVerificationCode = "INVALID_VERIFICATION_CODE"
	TextCodeInvalidResetToken       = "INVALID_RESET_TOKEN"
	TextCodeTokenExpired            = "TOKEN_EXPIRED"
	TextCodeTokenMalformed          = "TOKEN_MALFORMED"
	TextCodeTransientFailure        = "TRANSIENT_FAILURE"
)

var (
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = goerrors.New("Username is already taken", goerrors.CategoryConflict).
				WithTextCode(TextCodeUsernameTaken).
				WithCode(goerrors.CodeConflict)

	// ErrEmailTaken is returned when registering an existing email
	ErrEmailTaken = goerrors.New("Email is already registered", goerrors.CategoryConflict).
			WithTextCode(TextCodeEmailTaken).
			WithCode(goerrors.CodeConflict)

	// ErrUsernameNotFound is returned by Authenticate for unknown usernames
	ErrUsernameNotFound = goerrors.New("Username not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeAccountNotFound).
				WithCode(goerrors.CodeNotFound)

	// ErrEmailNotFound is returned by InitiatePasswordReset for unknown emails
	ErrEmailNotFound = goerrors.New("User with the email is not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeAccountNotFound).
				WithCode(goerrors.CodeNotFound)

	// ErrMismatchedHashAndPassword is returned when a password does not match its digest
	ErrMismatchedHashAndPassword = goerrors.New("Incorrect password", goerrors.CategoryAuth).
					WithTextCode(TextCodeInvalidCredentials).
					WithCode(goerrors.CodeUnauthorized)

	// ErrInvalidVerificationCode covers unknown and already consumed codes
	ErrInvalidVerificationCode = goerrors.New("Unauthorised access. Invalid verification code", goerrors.CategoryAuth).
					WithTextCode(TextCodeInvalidVerificationCode).
					WithCode(goerrors.CodeUnauthorized)

	// ErrInvalidResetToken covers unknown, consumed and expired reset tokens
	ErrInvalidResetToken = goerrors.New("Password reset token is invalid or has expired", goerrors.CategoryAuth).
				WithTextCode(TextCodeInvalidResetToken).
				WithCode(goerrors.CodeUnauthorized)

	// ErrAccountGone is returned when a valid token names a missing account
	ErrAccountGone = goerrors.New("Account for this token no longer exists", goerrors.CategoryAuth).
			WithTextCode(TextCodeAccountNotFound).
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenExpired = goerrors.New("Token is expired", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenExpired).
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenMalformed = goerrors.New("Token is malformed", goerrors.CategoryAuth).
				WithTextCode(TextCodeTokenMalformed).
				WithCode(goerrors.CodeUnauthorized)

	// ErrNoEmptyString is returned when hashing an empty password
	ErrNoEmptyString = goerrors.New("Password must not be empty", goerrors.CategoryValidation).
				WithTextCode(TextCodeValidationFailed).
				WithCode(goerrors.CodeBadRequest)
)

// transient wraps storage and other infrastructure failures.
func transient(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeTransientFailure).
		WithCode(goerrors.CodeInternal)
}

// asRichError converts any error into the package taxonomy. Errors that
// are already rich keep their category, anything else is transient.
func asRichError(err error, msg string) *goerrors.Error {
	if err == nil {
		return nil
	}
	if richErr, ok := richError(err); ok {
		return richErr
	}
	return transient(err, msg)
}

// StatusFromError maps an error to the HTTP status for its category
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	richErr, ok := richError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsConflict reports whether err is a uniqueness conflict
func IsConflict(err error) bool {
	richErr, ok := richError(err)
	return ok && richErr.Category == goerrors.CategoryConflict
}

// IsUnauthorized reports whether err is an authentication failure
func IsUnauthorized(err error) bool {
	richErr, ok := richError(err)
	return ok && richErr.Category == goerrors.CategoryAuth
}

// IsNotFound reports whether err is a missing account error
func IsNotFound(err error) bool {
	richErr, ok := richError(err)
	return ok && richErr.Category == goerrors.CategoryNotFound
}

// IsValidation reports whether err is an input validation error
func IsValidation(err error) bool {
	richErr, ok := richError(err)
	return ok && richErr.Category == goerrors.CategoryValidation
}

// IsTransient reports whether err is an infrastructure failure
func IsTransient(err error) bool {
	richErr, ok := richError(err)
	return ok && richErr.Category == goerrors.CategoryInternal
}

func richError(err error) (*goerrors.Error, bool) {
	var richErr *goerrors.Error
	if err == nil || !goerrors.As(err, &richErr) {
		return nil, false
	}
	return richErr, true
}
