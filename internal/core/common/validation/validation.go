package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/frahmantamala/payable/internal"
)

// DateLayout is the wire format of calendar dates (expense date, paidAt).
const DateLayout = "2006-01-02"

var validate = newValidator()

// fieldCodes maps a JSON field name to the error code reported for it.
var fieldCodes = map[string]apperrors.ErrorCode{
	"amount":      apperrors.ErrCodeInvalidAmount,
	"description": apperrors.ErrCodeInvalidDescription,
	"category":    apperrors.ErrCodeInvalidCategory,
	"date":        apperrors.ErrCodeInvalidDate,
	"status":      apperrors.ErrCodeInvalidStatus,
	"email":       apperrors.ErrCodeInvalidEmail,
	"name":        apperrors.ErrCodeInvalidName,
	"role":        apperrors.ErrCodeInvalidRole,
}

func newValidator() *validator.Validate {
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

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})

	return v
}

// IsDate reports whether s is a calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Struct validates s against its `validate` tags and returns a validation
// AppError listing every failing field, or nil.
func Struct(s interface{}) *apperrors.AppError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed)
	}

	details := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		code, ok := fieldCodes[fe.Field()]
		if !ok {
			code = apperrors.ErrCodeValidationFailed
		}
		details = append(details, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    string(code),
		})
	}

	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: details})
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "contains":
		return fmt.Sprintf("%s must contain %q", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
