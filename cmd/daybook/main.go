// Command daybook is the admin CLI for the daybook storage core: it
// initializes storage, reports status, migrates between backends and moves
// snapshots in and out.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "daybook:", err)
		os.Exit(exitCode(err))
	}
}

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// sysError marks failures of the environment rather than of the invocation.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return sysError{fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
