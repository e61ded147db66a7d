package types

import (
	"errors"
	"fmt"
)

// Result is the uniform outcome of a storage operation. Exactly one of Data
// (when Success is true) or Error (when Success is false) is meaningful.
// Backends and the Manager return a Result instead of an error so that
// failures cross component boundaries as displayable messages.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	cause error
}

// Ok wraps a successful value.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Done is the successful Result for operations without a value.
func Done() Result[struct{}] {
	return Result[struct{}]{Success: true}
}

// Fail converts err into a failed Result. The message is err.Error(); the
// original error stays reachable through Err for errors.Is checks.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{Error: err.Error(), cause: err}
}

// Failf builds a failed Result from a format string. %w verbs are honoured.
func Failf[T any](format string, args ...any) Result[T] {
	return Fail[T](fmt.Errorf(format, args...))
}

// Err returns nil for a successful Result and an error otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.cause != nil {
		return r.cause
	}
	return errors.New(r.Error)
}

// Unwrap returns the value and the error as a conventional Go pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

// Forward re-types a failed Result, keeping its cause.
func Forward[T, U any](r Result[U]) Result[T] {
	return Result[T]{Error: r.Error, cause: r.Err()}
}
