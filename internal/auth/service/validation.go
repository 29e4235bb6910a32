package service

import (
	"errors"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return isValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("letterdigit", func(fl validator.FieldLevel) bool {
		return isValidPassword(fl.Field().String())
	})
	return v
}

// registrationError maps the first failed field to its user-facing error.
func registrationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ErrInvalidUsername.WithCause(err)
	}
	switch fieldErrs[0].Field() {
	case "Email":
		return ErrInvalidEmail.WithCause(err)
	case "Name":
		return ErrInvalidName.WithCause(err)
	case "Password":
		return ErrInvalidPassword.WithCause(err)
	default:
		return ErrInvalidUsername.WithCause(err)
	}
}

func isValidUsername(value string) bool {
	if !usernameRegex.MatchString(value) {
		return false
	}

	if !unicode.IsLetter(rune(value[0])) && !unicode.IsDigit(rune(value[0])) {
		return false
	}

	if !unicode.IsLetter(rune(value[len(value)-1])) && !unicode.IsDigit(rune(value[len(value)-1])) {
		return false
	}

	return true
}

func isValidPassword(value string) bool {
	hasLetter := false
	hasDigit := false

	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}

	return false
}
