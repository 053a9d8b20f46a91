package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct validates s and converts the first failure into a service error.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fail(ErrInvalidParameter, "%s", err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fail(ErrMissingParameter, "%s is required", fe.Field())
	case "max":
		return fail(ErrInvalidParameter, "%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fail(ErrInvalidParameter, "%s must be at least %s characters", fe.Field(), fe.Param())
	case "email":
		return fail(ErrInvalidParameter, "%s must be a valid email address", fe.Field())
	case "oneof":
		return fail(ErrInvalidParameter, "%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fail(ErrInvalidParameter, "%s is invalid", fe.Field())
}
