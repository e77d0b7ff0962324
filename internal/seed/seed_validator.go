package seed

import (
	"errors"
	"regexp"

	"go-portal/internal/shared/apperror"
	"go-portal/internal/validation"

	"github.com/go-playground/validator/v10"
)

var yearMonth = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(apperror.JSONTagName)
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return validation.IsEmailShape(fl.Field().String())
	})
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		return yearMonth.MatchString(fl.Field().String())
	})
	return v
}

// validateRecord returns the first failing field as an AppError, so the
// message names the field the way an input file spells it.
func validateRecord(rec Record) error {
	err := recordValidator.Struct(rec)
	if err == nil {
		return nil
	}

	mapped := apperror.MapValidationError(err)
	var appErr *apperror.AppError
	if errors.As(mapped, &appErr) {
		return appErr.WithCause(err)
	}
	return mapped
}
