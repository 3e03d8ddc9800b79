package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ajebo/storefront-api/apperr"
	"github.com/ajebo/storefront-api/models"
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
	return v
}

// ValidateAddress checks that a delivery address is complete. The first
// offending field is reported as a validation error.
func ValidateAddress(a *models.Address) error {
	if a == nil {
		return apperr.Validation("address", "Missing delivery address. Please add an address before checkout.")
	}

	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return apperr.Validation("address", "Invalid delivery address")
	}

	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return apperr.Validation(fe.Field(), fmt.Sprintf("Delivery address is missing %s", fe.Field()))
	case "min":
		return apperr.Validation(fe.Field(), fmt.Sprintf("Delivery address %s must be at least %s characters", fe.Field(), fe.Param()))
	default:
		return apperr.Validation(fe.Field(), fmt.Sprintf("Delivery address %s is invalid", fe.Field()))
	}
}
