package bridge

import "errors"

// ErrOutputLimit is reported when an enumeration produces more output than
// the runner's cap.
var ErrOutputLimit = errors.New("output exceeded the size limit")

// ExecutionError reports a failed enumeration: the runner could not be
// started, exited non-zero, timed out, or overflowed its output cap.
type ExecutionError struct {
	Op  string // e.g. "list shortcuts"
	Err error
}

func (e *ExecutionError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
