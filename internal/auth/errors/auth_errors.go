package autherrors

import (
	"go-portal/internal/shared/apperror"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so callers cannot tell which one failed.
	ErrInvalidCredentials = apperror.New(
		apperror.CodeInvalidCredentials,
		"Invalid credentials",
		http.StatusUnauthorized,
	)

	ErrEmailAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"User with this email already exists",
		http.StatusConflict,
	)

	ErrStoreUnavailable = apperror.New(
		apperror.CodeInternalError,
		"Internal server error",
		http.StatusInternalServerError,
	)

	ErrInvalidRequestBody = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid request body",
		http.StatusBadRequest,
	)
)
