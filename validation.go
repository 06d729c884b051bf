package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// validateWith runs fn and turns ozzo failures into a validation error
// whose metadata carries the per field messages.
func validateWith(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	fields := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	return goerrors.New(err.Error(), goerrors.CategoryValidation).
		WithTextCode(TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}
