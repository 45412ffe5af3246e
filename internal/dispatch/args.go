package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned for an operation name the dispatcher
// does not recognise.
var ErrUnknownOperation = errors.New("unknown operation")

// ValidationError reports a missing or ill-typed argument. It is raised
// before any process is started.
type ValidationError struct {
	Arg    string
	Reason string // "is required", "must be a string"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Arg, e.Reason)
}

// requiredString returns args[key], which must be a non-empty string.
func requiredString(args map[string]any, key string) (string, error) {
	s, err := optionalString(args, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ValidationError{Arg: key, Reason: "is required"}
	}
	return s, nil
}

// optionalString returns args[key] if present. Absent and null values
// yield "".
func optionalString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Arg: key, Reason: "must be a string"}
	}
	return s, nil
}
