// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindData          Kind = "data"
	KindCalculation   Kind = "calculation"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Kind:    base.Kind,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf wraps base with a formatted cause.
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindInternal
}

// Predefined errors
var (
	// Configuration errors
	ErrStrategyInvalid = &Error{Code: "STRATEGY_INVALID", Kind: KindConfiguration, Message: "strategy definition invalid"}
	ErrBacktestParams  = &Error{Code: "BACKTEST_PARAMS_INVALID", Kind: KindConfiguration, Message: "backtest parameters invalid"}
	ErrConfigInvalid   = &Error{Code: "CONFIG_INVALID", Kind: KindConfiguration, Message: "configuration invalid"}
	ErrConfigMissing   = &Error{Code: "CONFIG_MISSING", Kind: KindConfiguration, Message: "required configuration missing"}

	// Data errors
	ErrInvalidPriceSeries = &Error{Code: "INVALID_PRICE_SERIES", Kind: KindData, Message: "invalid price series"}
	ErrNoData             = &Error{Code: "NO_DATA", Kind: KindData, Message: "no data available"}

	// Calculation errors
	ErrUnsupportedIndicator = &Error{Code: "UNSUPPORTED_INDICATOR", Kind: KindCalculation, Message: "unsupported indicator kind"}

	// Lookup errors
	ErrNotFound = &Error{Code: "NOT_FOUND", Kind: KindNotFound, Message: "not found"}

	// Runtime errors
	ErrTimeout = &Error{Code: "TIMEOUT", Kind: KindInternal, Message: "operation timed out"}
)

// Prefix returns a copy of err with prefix prepended to its message. The code and
// kind of a structured error are preserved.
func Prefix(err error, prefix string) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Code: e.Code, Kind: e.Kind, Message: prefix + ": " + e.Message, Cause: e.Cause}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
