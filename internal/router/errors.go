package router

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandNotFound is reported when a named invocation has no registry entry.
	ErrCommandNotFound = errors.New("command not found")

	// ErrNoHandler is reported when a button click has no claimant, or no claimant handled it.
	ErrNoHandler = errors.New("no handler accepted the interaction")

	// ErrNoReplySink is returned by Interaction.Reply when the transport gave no sink.
	ErrNoReplySink = errors.New("interaction has no reply sink")
)

// ConfigurationError marks a command definition that cannot be registered.
type ConfigurationError struct {
	Command string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Command == "" {
		return "invalid command: " + e.Reason
	}
	return fmt.Sprintf("invalid command %q: %s", e.Command, e.Reason)
}

// HandlerExecutionError wraps a failure raised from inside a handler,
// including recovered panics.
type HandlerExecutionError struct {
	Command        string
	Classification Classification
	Err            error
	Panicked       bool
}

func (e *HandlerExecutionError) Error() string {
	verb := "failed"
	if e.Panicked {
		verb = "panicked"
	}
	return fmt.Sprintf("%s handler of %q %s: %v", e.Classification, e.Command, verb, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }
