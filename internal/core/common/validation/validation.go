package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	errors "github.com/frahmantamala/inventory-management/internal"
)

// PasswordSymbols is the special-character set a password must draw from.
const PasswordSymbols = "!@#$%^&*"

const MinPasswordLength = 8

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
	errors []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
		errors: make([]errors.ValidationError, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) MinLength(min int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if utf8.RuneCountInString(v) < min {
				message := fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min)
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

// Contains requires at least one rune of the string value to satisfy match.
func (fv *FieldValidator) Contains(match func(rune) bool, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if strings.IndexFunc(v, match) < 0 {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

// ValidateFirst stops at the first failing rule and reports only that rule.
func (v *ValidationBuilder) ValidateFirst() *errors.AppError {
	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
					WithDetails(errors.ValidationErrors{Errors: toValidationErrors(field.FieldName, err)[:1]})
			}
		}
	}
	return nil
}

func toValidationErrors(fieldName string, appErr *errors.AppError) []errors.ValidationError {
	if details, ok := appErr.Details.(errors.ValidationErrors); ok && len(details.Errors) > 0 {
		return details.Errors
	}
	return []errors.ValidationError{{
		Field:   fieldName,
		Message: appErr.Message,
		Code:    string(appErr.Code),
	}}
}

func isPasswordSymbol(r rune) bool {
	return strings.ContainsRune(PasswordSymbols, r)
}

// ValidatePassword checks password strength and reports the first rule broken.
func ValidatePassword(password string) *errors.AppError {
	validator := NewValidator()
	validator.Field("password", password).
		MinLength(MinPasswordLength, errors.ErrCodePasswordLength).
		Contains(unicode.IsUpper, "password must contain an uppercase letter", errors.ErrCodePasswordUpper).
		Contains(unicode.IsLower, "password must contain a lowercase letter", errors.ErrCodePasswordLower).
		Contains(unicode.IsDigit, "password must contain a digit", errors.ErrCodePasswordDigit).
		Contains(isPasswordSymbol, fmt.Sprintf("password must contain one of %s", PasswordSymbols), errors.ErrCodePasswordSymbol)
	return validator.ValidateFirst()
}
