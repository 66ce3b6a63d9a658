// Package validator adapts go-playground/validator to echo and to the GraphQL resolvers.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/errors"
)

// Validator validates struct tags and reports failures as ErrValidationFailed.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. It satisfies echo.Validator.
func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks i against its `validate` tags.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate")
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describe(fe))
	}

	return domainerrors.ErrValidationFailed.WithDetails(strings.Join(details, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " failed " + fe.Tag()
	}
}
