// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/storefront/internal/money"
)

var validate *validator.Validate

var referencePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-:.]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("reference", validateReference)
	validate.RegisterValidation("price", validatePrice)
	validate.RegisterValidation("coupon_code", validateCouponCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateReference accepts backend ids: product, user, address and order references.
func validateReference(fl validator.FieldLevel) bool {
	ref := fl.Field().String()
	if len(ref) == 0 || len(ref) > 64 {
		return false
	}
	return referencePattern.MatchString(ref)
}

func validatePrice(fl validator.FieldLevel) bool {
	_, ok := money.ParsePrice(fl.Field().String())
	return ok
}

func validateCouponCode(fl validator.FieldLevel) bool {
	code := strings.TrimSpace(fl.Field().String())
	if len(code) == 0 || len(code) > 32 {
		return false
	}
	return !strings.ContainsAny(code, " \t\n/?#")
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "reference":
		return e.Field() + " must be 1-64 characters of letters, digits, '-', '_', ':' or '.'"
	case "price":
		return e.Field() + " must be a decimal amount"
	case "coupon_code":
		return "Coupon code must be 1-32 characters without spaces"
	default:
		return e.Field() + " is invalid"
	}
}
