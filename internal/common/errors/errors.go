package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies application errors
type ErrorCode string

const (
	// General
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Configuration
	ErrCodeNotConfigured   ErrorCode = "NOT_CONFIGURED"
	ErrCodeInvalidMnemonic ErrorCode = "INVALID_MNEMONIC"

	// Deal verification: expected, frequent, caller fixes and retries
	ErrCodeVerification ErrorCode = "VERIFICATION_FAILED"

	// Chain and external APIs
	ErrCodeChain       ErrorCode = "CHAIN_ERROR"
	ErrCodeRateLimit   ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTelegramAPI ErrorCode = "TELEGRAM_API_ERROR"
)

// AppError is the typed application error carried across layers
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsVerification reports an expected verification failure, as opposed to an
// infrastructure or configuration problem.
func (e *AppError) IsVerification() bool {
	return e.Code == ErrCodeVerification
}

func (e *AppError) IsNotConfigured() bool {
	return e.Code == ErrCodeNotConfigured
}

// WithDetail attaches structured context to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps the underlying cause for errors.Is/As chains
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Common constructors

func NewNotConfiguredError(what string) *AppError {
	return New(ErrCodeNotConfigured, fmt.Sprintf("Service is not configured: %s", what)).
		WithDetail("missing", what)
}

func NewVerificationError(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeVerification, format, args...)
}

func NewChainError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeChain, fmt.Sprintf("Chain operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewTelegramAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTelegramAPI, fmt.Sprintf("Telegram API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewRateLimitError(service string, retryAfter time.Duration) *AppError {
	return New(ErrCodeRateLimit, fmt.Sprintf("Rate limit exceeded for %s", service)).
		WithDetail("service", service).
		WithDetail("retry_after", retryAfter.String())
}

// AsAppError casts err to AppError when possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
