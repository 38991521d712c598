// Package validation checks request structs against their `validate` tags and reports
// the first failure as a VALIDATION_ERROR naming the JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"genesis-api/pkg/apierror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// maxBytes caps a string by byte length; bcrypt rejects passwords over 72 bytes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}

	fe := fieldErrs[0]
	reason, message := describe(fe)
	return apierror.Validation(fe.Field(), reason, message)
}

func describe(fe validator.FieldError) (string, string) {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "required", fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid", fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return "too_short", fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return "too_long", fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "maxbytes":
		return "too_long", fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	default:
		return fe.Tag(), fmt.Sprintf("%s is invalid", field)
	}
}
