package internal

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequired         ErrorCode = "REQUIRED"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodePasswordLength   ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodePasswordUpper    ErrorCode = "PASSWORD_MISSING_UPPERCASE"
	ErrCodePasswordLower    ErrorCode = "PASSWORD_MISSING_LOWERCASE"
	ErrCodePasswordDigit    ErrorCode = "PASSWORD_MISSING_DIGIT"
	ErrCodePasswordSymbol   ErrorCode = "PASSWORD_MISSING_SYMBOL"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeInvalidAccess    ErrorCode = "INVALID_ACCESS_TYPE"

	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeGrantNotFound      ErrorCode = "GRANT_NOT_FOUND"

	ErrCodeUsernameTaken         ErrorCode = "USERNAME_TAKEN"
	ErrCodeVersionConflict       ErrorCode = "VERSION_CONFLICT"
	ErrCodeHasDependents         ErrorCode = "HAS_DEPENDENTS"
	ErrCodeSelfArchivalForbidden ErrorCode = "SELF_ARCHIVAL_FORBIDDEN"

	ErrCodeAlreadyGranted    ErrorCode = "ALREADY_GRANTED"
	ErrCodeUnknownUser       ErrorCode = "UNKNOWN_USER"
	ErrCodeUnknownPermission ErrorCode = "UNKNOWN_PERMISSION"

	ErrCodePermissionNotGranted   ErrorCode = "PERMISSION_NOT_GRANTED"
	ErrCodeInsufficientCapability ErrorCode = "INSUFFICIENT_CAPABILITY"
	ErrCodeScreenNotAuthorized    ErrorCode = "SCREEN_NOT_AUTHORIZED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// NotAuthorizedMessage is the only text a denied caller ever sees.
const NotAuthorizedMessage = "not authorized"

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails mutates the receiver; never call it on the sentinels below.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewUnprocessableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnprocessable,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// DependentCounts describes what blocks a permanent user deletion.
type DependentCounts struct {
	ActiveGrants   int64 `json:"active_grants"`
	ActiveSessions int64 `json:"active_sessions"`
	AuditRecords   int64 `json:"audit_records"`
}

func (d DependentCounts) Any() bool {
	return d.ActiveGrants > 0 || d.ActiveSessions > 0 || d.AuditRecords > 0
}

func NewHasDependentsError(counts DependentCounts) *AppError {
	return NewConflictError("user has dependent records", ErrCodeHasDependents).WithDetails(counts)
}

var (
	ErrUnauthenticated    = NewUnauthorizedError(NotAuthorizedMessage, ErrCodeUnauthenticated)
	ErrInvalidCredentials = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrAccountDisabled    = NewForbiddenError("user account is disabled", ErrCodeAccountDisabled)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)

	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrPermissionNotFound = NewNotFoundError("permission not found", ErrCodePermissionNotFound)
	ErrGrantNotFound      = NewNotFoundError("grant not found", ErrCodeGrantNotFound)

	ErrUsernameTaken         = NewConflictError("username is already taken", ErrCodeUsernameTaken)
	ErrVersionConflict       = NewConflictError("record was modified by another request", ErrCodeVersionConflict)
	ErrSelfArchivalForbidden = NewForbiddenError("users cannot archive themselves", ErrCodeSelfArchivalForbidden)

	ErrAlreadyGranted    = NewConflictError("permission already granted", ErrCodeAlreadyGranted)
	ErrUnknownUser       = NewUnprocessableError("unknown or archived user", ErrCodeUnknownUser)
	ErrUnknownPermission = NewUnprocessableError("unknown or archived permission", ErrCodeUnknownPermission)

	ErrPermissionNotGranted   = NewForbiddenError(NotAuthorizedMessage, ErrCodePermissionNotGranted)
	ErrInsufficientCapability = NewForbiddenError(NotAuthorizedMessage, ErrCodeInsufficientCapability)
	ErrScreenNotAuthorized    = NewForbiddenError(NotAuthorizedMessage, ErrCodeScreenNotAuthorized)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}
