package service

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/account-service/internal/auth"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// SignupInput is the signup request body. The name and password fields must
// be present but may be empty strings; the username must be an email.
type SignupInput struct {
	Username  string  `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
}

// Validate will run validation rules
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, is.Email),
		validation.Field(&in.FirstName, validation.NotNil),
		validation.Field(&in.LastName, validation.NotNil),
		validation.Field(&in.Password, validation.NotNil, validation.By(fitsBcrypt)),
	)
}

// SigninInput is the signin request body.
type SigninInput struct {
	Username string  `json:"username"`
	Password *string `json:"password"`
}

// Validate will run validation rules
func (in SigninInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, is.Email),
		validation.Field(&in.Password, validation.NotNil),
	)
}

// UpdateInput is the self-update request body. Username is not accepted.
// Absent fields are left unchanged; present fields may be empty strings.
type UpdateInput struct {
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// Validate will run validation rules
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Password, validation.By(fitsBcrypt)),
	)
}

// fitsBcrypt rejects passwords bcrypt would refuse to hash.
func fitsBcrypt(value interface{}) error {
	if pw, ok := value.(*string); ok && pw != nil && len(*pw) > auth.MaxPasswordBytes {
		return errors.New("is too long")
	}
	return nil
}

// Validation failure messages.
const (
	MsgInvalidSignup = "Invalid inputs for signup!"
	MsgInvalidSignin = "Invalid signin inputs!"
	MsgInvalidUpdate = "Invalid inputs for update!"
)

// invalidInput turns an ozzo validation error into a ValidationError with
// per-field details.
func invalidInput(message string, err error) error {
	details := map[string]any{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
	}
	if len(details) == 0 {
		details = nil
	}
	return apperrors.NewValidationError(message, details)
}

// InvalidSignup reports an unparseable signup body.
func InvalidSignup() error { return apperrors.NewValidationError(MsgInvalidSignup, nil) }

// InvalidSignin reports an unparseable signin body.
func InvalidSignin() error { return apperrors.NewValidationError(MsgInvalidSignin, nil) }

// InvalidUpdate reports an unparseable update body.
func InvalidUpdate() error { return apperrors.NewValidationError(MsgInvalidUpdate, nil) }
