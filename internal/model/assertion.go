package model

import "fmt"

// AssertionError distinguishes a failing check inside a test body from any
// other raised condition. Coordinators record it as failed, not errored.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return e.Msg
}

// Assertf builds an AssertionError from a format string.
func Assertf(format string, args ...any) *AssertionError {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}
