package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// Struct validates dest against its `validate` tags. The returned error carries the
// first failing field as its message and every failing field in its details.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return FormatErrors(err)
	}
	return nil
}

func FormatErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = Message(fieldErr)
		}
		first := errs[0]
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %s", first.Field(), Message(first))).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
