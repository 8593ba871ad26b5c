package core

import (
	"fmt"
	"maps"
	"strings"
)

const (
	CodeInvalidCredential = "app/invalid-credential"
	CodeUserNotFound      = "auth/user-not-found"
	CodeInvalidArgument   = "auth/invalid-argument"
	CodeInternalError     = "auth/internal-error"
)

// ProviderError is returned by identity providers.
// Code has the form "<prefix>/<reason>", e.g. "auth/user-not-found".
type ProviderError struct {
	Code    string
	Message string

	// Data carries auxiliary information about the failed operation (e.g. uid, developerClaims).
	Data map[string]any

	Wrapped error
}

func NewProviderError(code, format string, args ...any) *ProviderError {
	return &ProviderError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ProviderError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.Wrapped)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Wrapped
}

// Prefix returns the part of Code before the slash.
func (e *ProviderError) Prefix() string {
	prefix, _, _ := strings.Cut(e.Code, "/")
	return prefix
}

// WithData returns a copy of the error with the given keys merged into Data.
// The receiver is left untouched, so the same error can be enriched from concurrent callers.
func (e *ProviderError) WithData(data map[string]any) *ProviderError {
	cpy := *e
	cpy.Data = make(map[string]any, len(e.Data)+len(data))
	maps.Copy(cpy.Data, e.Data)
	maps.Copy(cpy.Data, data)
	return &cpy
}
