package models

import (
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags of v and turns the first failure into a
// field validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fieldError(strings.ToLower(fe.Field()), errors.DescribeFieldError(fe))
	}

	return errors.ValidationError("Invalid input data").WithError(err)
}

func fieldError(field, reason string) error {
	return errors.AddValidationError(field, reason)
}
