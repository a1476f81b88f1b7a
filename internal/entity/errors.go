package entity

import (
	"fmt"
	"strings"
)

// InvalidStateTransitionError is returned when a command is issued against an
// aggregate whose current status does not permit it. It names the rejected
// action and the state the aggregate was actually in.
type InvalidStateTransitionError struct {
	Action string
	Status Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s: order in state '%s'", e.Action, e.Status)
}

func newTransitionError(action string, status Status) error {
	return &InvalidStateTransitionError{Action: action, Status: status}
}

// FieldError is a single business-rule violation tied to an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the structured error list surfaced to callers when a
// command's business-rule guard fails. Distinct from InvalidStateTransitionError:
// the state permitted the command, the inputs did not.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
