package response

import (
	"go-portal/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// AuthEnvelope is the body of a successful login or signup.
type AuthEnvelope struct {
	Success bool `json:"success"`
	User    any  `json:"user"`
}

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func Success(c *gin.Context, status int, user any) {
	c.JSON(status, AuthEnvelope{
		Success: true,
		User:    user,
	})
}

func Error(c *gin.Context, status int, errorCode string, message string) {
	c.JSON(status, ErrorEnvelope{
		Error: message,
		Code:  errorCode,
	})
}

// AppError renders err through apperror.ToHTTP so unknown causes stay server-side.
func AppError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	Error(c, httpErr.Status, httpErr.Code, httpErr.Message)
}
