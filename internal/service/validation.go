package service

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/msomdec/gatekeeper/internal/domain"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate checks the registration payload field by field.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen), validation.By(passwordStrength)),
		validation.Field(&in.Role, validation.In(roleValues()...)),
	)
}

// UpdateInput is the payload of a profile update. Nil fields are left
// unchanged.
type UpdateInput struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Validate checks only the fields that are present.
func (in UpdateInput) Validate() error {
	errs := validation.Errors{}
	if in.Email != nil {
		errs["email"] = validation.Validate(*in.Email, validation.Required, validation.Length(3, 254), is.Email)
	}
	if in.Role != nil {
		errs["role"] = validation.Validate(*in.Role, validation.Required, validation.In(roleValues()...))
	}
	return errs.Filter()
}

func passwordStrength(value any) error {
	s, _ := value.(string)
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return errors.New("must contain at least one letter and one digit")
	}
	return nil
}

func roleValues() []any {
	values := make([]any, len(domain.Roles))
	for i, r := range domain.Roles {
		values[i] = string(r)
	}
	return values
}

// asValidationError converts ozzo validation errors into the domain type.
// Anything else (an ozzo internal error) is returned unchanged.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	return &domain.ValidationError{Fields: fields}
}
