package validation

import (
	"errors"
	"fmt"
	"regexp"

	"go-portal/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 6

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required,min=6"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(apperror.JSONTagName)
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return IsEmailShape(fl.Field().String())
	})
	return v
}

// IsEmailShape reports whether s looks like local@domain.tld. It is a shape
// check only, no RFC parsing.
func IsEmailShape(s string) bool {
	return emailShape.MatchString(s)
}

// ValidateCredentials checks a login request. Both fields must be non-empty.
func ValidateCredentials(email, password string) error {
	return classify(validate.Struct(credentials{Email: email, Password: password}))
}

// ValidateSignup checks a signup request. A missing field wins over a bad
// email, which wins over a short password.
func ValidateSignup(name, email, password string) error {
	return classify(validate.Struct(signup{Name: name, Email: email, Password: password}))
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return apperror.ErrInvalidInput.WithCause(err)
	}

	for _, fe := range errs {
		if fe.Tag() == "required" {
			return ErrMissingField.WithCause(fmt.Errorf("%s is required", fe.Field()))
		}
	}
	for _, fe := range errs {
		if fe.Tag() == "emailshape" {
			return ErrInvalidEmailFormat.WithCause(fmt.Errorf("%s is not an email", fe.Field()))
		}
	}
	for _, fe := range errs {
		if fe.Tag() == "min" {
			return ErrPasswordTooShort.WithCause(fmt.Errorf("%s is shorter than %d", fe.Field(), MinPasswordLength))
		}
	}

	return apperror.MapValidationError(err)
}
