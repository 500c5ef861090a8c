package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorType is the category shown to users as "Error (<type>): ..."
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeFileAccess  ErrorType = "file_access"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeUpstream    ErrorType = "upstream"
	ErrorTypeOCR         ErrorType = "ocr"
	ErrorTypeConversion  ErrorType = "conversion"
	ErrorTypeSystem      ErrorType = "system"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypePermission  ErrorType = "permission"
	ErrorTypeNotFound    ErrorType = "not_found"
)

// recoverableTypes are retried by WithRetry and BackoffRetrier
var recoverableTypes = map[ErrorType]bool{
	ErrorTypeTimeout:  true,
	ErrorTypeNetwork:  true,
	ErrorTypeUpstream: true,
}

// AppError is a typed error carrying optional key/value context
type AppError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any *AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Type == t.Type
}

// WithContext attaches a key/value pair and returns e
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates an AppError whose recoverability follows its type
func NewError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:        errorType,
		Message:     message,
		Cause:       cause,
		Context:     make(map[string]interface{}),
		Recoverable: recoverableTypes[errorType],
	}
}

func NewValidationError(message string, cause error) *AppError {
	return NewError(ErrorTypeValidation, message, cause)
}

func NewIOError(message string, cause error) *AppError {
	return NewError(ErrorTypeIO, message, cause)
}

// NewFileAccessError reports a missing or unreadable input file
func NewFileAccessError(path string, cause error) *AppError {
	return NewError(ErrorTypeFileAccess, "cannot access file: "+path, cause).WithContext("path", path)
}

func NewOCRError(message string, cause error) *AppError {
	return NewError(ErrorTypeOCR, message, cause)
}

// NewUpstreamError reports a failed call to an embedding or chat service
func NewUpstreamError(message string, cause error) *AppError {
	return NewError(ErrorTypeUpstream, message, cause)
}

// NewUpstreamStatusError is an upstream error for an HTTP status. Only 429,
// 5xx and failures without a response (status 0) are recoverable.
func NewUpstreamStatusError(message string, status int, cause error) *AppError {
	err := NewUpstreamError(message, cause)
	err.Recoverable = status == 0 || status == 429 || status >= 500
	if status != 0 {
		err.WithContext("status", status)
	}
	return err
}

func NewConversionError(message string, cause error) *AppError {
	return NewError(ErrorTypeConversion, message, cause)
}

func NewUnsupportedError(message string, cause error) *AppError {
	return NewError(ErrorTypeUnsupported, message, cause)
}

func NewSystemError(message string, cause error) *AppError {
	return NewError(ErrorTypeSystem, message, cause)
}

func NewNotFoundError(message string, cause error) *AppError {
	return NewError(ErrorTypeNotFound, message, cause)
}

func NewPermissionError(message string, cause error) *AppError {
	return NewError(ErrorTypePermission, message, cause)
}

// WrapError wraps err with message. An empty errorType keeps the type of an
// AppError already in the chain, or classifies a plain error from its text.
func WrapError(err error, errorType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errorType == "" && errors.As(err, &appErr) {
		return &AppError{
			Type:        appErr.Type,
			Message:     message + ": " + appErr.Message,
			Cause:       appErr.Cause,
			Context:     appErr.Context,
			Recoverable: appErr.Recoverable,
		}
	}

	if errorType == "" {
		errorType = classifyError(err)
	}
	return NewError(errorType, message, err)
}

type classifyRule struct {
	errorType ErrorType
	sentinels []error
	keywords  []string
}

// classifyRules are checked in order; the first match wins
var classifyRules = []classifyRule{
	{errorType: ErrorTypeTimeout, sentinels: []error{context.DeadlineExceeded, context.Canceled}},
	{errorType: ErrorTypeFileAccess, sentinels: []error{fs.ErrNotExist}},
	{errorType: ErrorTypePermission, sentinels: []error{fs.ErrPermission}, keywords: []string{"permission denied", "access denied"}},
	{errorType: ErrorTypeNotFound, keywords: []string{"no such file", "not found"}},
	{errorType: ErrorTypeNetwork, keywords: []string{"network", "connection"}},
	{errorType: ErrorTypeOCR, keywords: []string{"ocr", "tesseract"}},
	{errorType: ErrorTypeConversion, keywords: []string{"convert", "parsing"}},
	{errorType: ErrorTypeValidation, keywords: []string{"invalid", "bad"}},
}

func classifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSystem
	}
	text := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, sentinel := range rule.sentinels {
			if errors.Is(err, sentinel) {
				return rule.errorType
			}
		}
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.errorType
			}
		}
	}
	return ErrorTypeSystem
}

// IsRecoverable reports whether err is worth retrying
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return recoverableTypes[classifyError(err)]
}

// GetErrorType returns the type of the first AppError in the chain, or
// classifies err
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return classifyError(err)
}
