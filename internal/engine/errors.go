package engine

import (
	"errors"
	"fmt"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// TransitionError represents a rejected action.
//
// Rejections include:
//   - Invalid transition: Action not legal from the current status
//   - Insufficient scope: Actor lacks the required capability
//   - Not assigned: Mutating action by someone other than the assignee
//   - Concurrent modification: Action based on a stale record version
//   - Validation failed: Malformed declaration fields or metadata
//
// TransitionError includes structured fields for diagnostics and recovery.
// The engine never partially applies a rejected action; the caller can
// always reload and retry.
type TransitionError struct {
	// Code identifies the rejection category.
	Code TransitionErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the affected record.
	EventID string

	// Action is the rejected action type.
	Action record.ActionType

	// Details contains additional context (offending field paths,
	// version numbers, required scopes).
	Details map[string]string
}

// TransitionErrorCode categorizes rejected actions.
type TransitionErrorCode string

const (
	// ErrCodeInvalidTransition indicates the action is not legal from the
	// record's current status or flag state.
	ErrCodeInvalidTransition TransitionErrorCode = "INVALID_TRANSITION"

	// ErrCodeInsufficientScope indicates the actor lacks the capability
	// required by the action type.
	ErrCodeInsufficientScope TransitionErrorCode = "INSUFFICIENT_SCOPE"

	// ErrCodeNotAssigned indicates a content-mutating action was attempted
	// by someone other than the current assignee.
	ErrCodeNotAssigned TransitionErrorCode = "NOT_ASSIGNED"

	// ErrCodeConcurrentModification indicates the action was based on a
	// stale version of the record.
	ErrCodeConcurrentModification TransitionErrorCode = "CONCURRENT_MODIFICATION"

	// ErrCodeValidationFailed indicates unknown declaration field paths,
	// wrong value kinds, or missing required metadata.
	ErrCodeValidationFailed TransitionErrorCode = "VALIDATION_FAILED"
)

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.EventID != "" && e.Action != "" {
		return fmt.Sprintf("%s: %s (event=%s, action=%s)", e.Code, e.Message, e.EventID, e.Action)
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the rejection code from an error chain.
// Returns "" when err is not a TransitionError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) TransitionErrorCode {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsInvalidTransition returns true if the error is an invalid-transition
// rejection.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

// IsInsufficientScope returns true if the error is a scope rejection.
func IsInsufficientScope(err error) bool {
	return CodeOf(err) == ErrCodeInsufficientScope
}

// IsNotAssigned returns true if the error is an assignment rejection.
func IsNotAssigned(err error) bool {
	return CodeOf(err) == ErrCodeNotAssigned
}

// IsConcurrentModification returns true if the error is a stale-version
// rejection.
func IsConcurrentModification(err error) bool {
	return CodeOf(err) == ErrCodeConcurrentModification
}

// IsValidationFailed returns true if the error is a declaration or
// metadata validation rejection.
func IsValidationFailed(err error) bool {
	return CodeOf(err) == ErrCodeValidationFailed
}

func newInvalidTransition(eventID string, action record.ActionType, from record.Status, msg string) *TransitionError {
	if msg == "" {
		msg = fmt.Sprintf("action not permitted from status %s", from)
	}
	return &TransitionError{
		Code:    ErrCodeInvalidTransition,
		Message: msg,
		EventID: eventID,
		Action:  action,
		Details: map[string]string{"status": string(from)},
	}
}

func newInsufficientScope(eventID string, action record.ActionType, needed []record.Scope) *TransitionError {
	scopes := make(map[string]string, 1)
	for i, s := range needed {
		scopes[fmt.Sprintf("required_scope_%d", i)] = string(s)
	}
	return &TransitionError{
		Code:    ErrCodeInsufficientScope,
		Message: "actor lacks a scope required by this action",
		EventID: eventID,
		Action:  action,
		Details: scopes,
	}
}

func newNotAssigned(eventID string, action record.ActionType, assignee string) *TransitionError {
	return &TransitionError{
		Code:    ErrCodeNotAssigned,
		Message: "record is assigned to another user",
		EventID: eventID,
		Action:  action,
		Details: map[string]string{"assignee": assignee},
	}
}

func newConcurrentModification(eventID string, action record.ActionType, base, current int) *TransitionError {
	return &TransitionError{
		Code:    ErrCodeConcurrentModification,
		Message: fmt.Sprintf("action based on stale version (base=%d, current=%d)", base, current),
		EventID: eventID,
		Action:  action,
		Details: map[string]string{
			"base_version":    fmt.Sprintf("%d", base),
			"current_version": fmt.Sprintf("%d", current),
		},
	}
}

func newValidationFailed(eventID string, action record.ActionType, msg string, details map[string]string) *TransitionError {
	return &TransitionError{
		Code:    ErrCodeValidationFailed,
		Message: msg,
		EventID: eventID,
		Action:  action,
		Details: details,
	}
}
