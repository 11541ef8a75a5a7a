package sdk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by login and refresh.
type LoginResponse struct {
	Username string `json:"username"`
	ID       ID     `json:"id"`
	Token    string `json:"token"`
}

// Registration is the body of POST /users.
type Registration struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Amka     string `json:"amka,omitempty" validate:"omitempty,numeric,len=11"`
	Lang     string `json:"lang,omitempty"`
}

// EmailRequest is the body of the verification-resend and reset-request calls.
type EmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// ResetPasswordRequest is the body of PUT /users/reset-password.
type ResetPasswordRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Lang     string `json:"lang,omitempty"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateInput wraps field errors in ErrInvalidInput.
func (a *Actions) validateInput(v any) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
