package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of engine failure. Every error surfaced by the
// engine carries exactly one code; callers branch on the code, not the message.
type ErrorCode string

const (
	// CodeInvalidStateTransition is returned when a terminal or otherwise
	// illegal task status change is attempted. State is left unchanged.
	CodeInvalidStateTransition ErrorCode = "invalid_state_transition"

	// CodeInsufficientFunds is returned when a coin spend exceeds the balance.
	CodeInsufficientFunds ErrorCode = "insufficient_funds"

	// CodeNotFound is returned when a referenced task, user or mission is absent.
	CodeNotFound ErrorCode = "not_found"

	// CodeConflict is returned after losing the race for a shared mutation
	// (boss health decrement). Callers should retry the read-modify-write.
	CodeConflict ErrorCode = "conflict"

	// CodeRecurrenceWindowExhausted is returned when the expander hit its
	// materialization cap for a pass. Non-fatal; expansion resumes next tick.
	CodeRecurrenceWindowExhausted ErrorCode = "recurrence_window_exhausted"
)

// EngineError provides structured error information for engine operations.
type EngineError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEngineError creates a new structured engine error.
func NewEngineError(code ErrorCode, message string, details map[string]any) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf extracts the engine error code from err, unwrapping as needed.
// Returns the empty string when err carries no engine code.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsCode reports whether err carries the given engine error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
