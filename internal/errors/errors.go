package errors

import (
	"errors"
	"fmt"
)

var (
	ErrURLNotFound = errors.New("URL not found")
	ErrURLExpired  = errors.New("URL has expired")

	// ErrShortCodeExists is returned by a repository when an insert hits an
	// already stored short code. It never leaves the service layer.
	ErrShortCodeExists = errors.New("short code already exists")

	// ErrCodeTaken is returned to callers whose custom short code is in use.
	ErrCodeTaken = errors.New("short code is already in use")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

type BusinessError struct {
	Code    string
	Message string
	Cause   error
}

func (e *BusinessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

const (
	CodeShortCodeGeneration = "SHORT_CODE_GENERATION"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeClickRecording      = "CLICK_RECORDING"
)

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

func GetValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

func GetBusinessError(err error) *BusinessError {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr
	}
	return nil
}

// HasBusinessCode reports whether err carries a BusinessError with the given code.
func HasBusinessCode(err error, code string) bool {
	businessErr := GetBusinessError(err)
	return businessErr != nil && businessErr.Code == code
}
