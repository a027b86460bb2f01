package validators

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator returns a validator that reports json field names and knows
// the "halfstep" rule.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// rating moves in steps of 0.5
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		doubled := fl.Field().Float() * 2
		return doubled == math.Trunc(doubled)
	})

	return &CustomValidator{validate: v}
}

// Validate implements echo.Validator. The first failing field is returned as
// a classified validation error.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation("", err.Error())
	}

	fe := verrs[0]
	return apperrors.Validation(fieldPath(fe), reason(fe))
}

// fieldPath drops the root struct name: "Draft.whereToWatch[1].icon" -> "whereToWatch[1].icon".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	// embedded Draft inside Post
	return strings.TrimPrefix(ns, "Draft.")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "halfstep":
		return "must be a multiple of 0.5"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "unique":
		if fe.Param() != "" {
			return fmt.Sprintf("must not repeat %s", strings.ToLower(fe.Param()))
		}
		return "must not contain duplicates"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
