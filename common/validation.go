package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted by the "password" rule.
const MinPasswordLength = 8

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the project's custom rules
// registered. Field names in errors are the struct field names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("password", validatePassword); err != nil {
			panic(fmt.Sprintf("register password rule: %v", err))
		}
	})
	return validate
}

// Validate checks v against its `validate` tags. Failures come back as a
// VALIDATION_ERROR APIError with one message per field.
func Validate(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &APIError{
			Message: "Validation failed",
			Code:    CodeValidation,
			Status:  http.StatusBadRequest,
			Err:     err,
		}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	apiErr := NewValidationError(fields)
	apiErr.Err = err
	return apiErr
}

// PasswordProblem returns a human readable reason the password is rejected,
// or "" when it satisfies the policy: at least MinPasswordLength characters
// with a lowercase letter, an uppercase letter and a digit.
func PasswordProblem(password string) string {
	if password == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !digit:
		return "Password must contain at least one number"
	}
	return ""
}

func validatePassword(fl validator.FieldLevel) bool {
	return PasswordProblem(fl.Field().String()) == ""
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "Password" {
			return "Password is required"
		}
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "password":
		return PasswordProblem(fmt.Sprint(fe.Value()))
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt", "gte", "lte", "min", "max":
		return fmt.Sprintf("Must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}
