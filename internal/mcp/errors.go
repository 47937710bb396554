package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/repository"
)

// Error codes shared by the MCP and REST surfaces.
const (
	CodeInvalidRange = "INVALID_RANGE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeLocked       = "LOCKED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
	CodeUnknownTool  = "UNKNOWN_TOOL"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

func invalidParams(err error) *APIError {
	return &APIError{Code: CodeInvalidInput, Message: err.Error(), RecoveryHint: "Check argument names and formats"}
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil
// so callers can fall back to a generic failure.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, availability.ErrInvalidRange):
		return &APIError{Code: CodeInvalidRange, Message: "invalid date range", RecoveryHint: "Use YYYY-MM-DD dates with end_date on or after start_date"}
	case errors.Is(err, availability.ErrInvalidInput), errors.Is(err, group.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: "invalid input", RecoveryHint: "Provide every required field"}
	case errors.Is(err, availability.ErrIntervalNotFound):
		return &APIError{Code: CodeNotFound, Message: "availability interval not found", RecoveryHint: "Call list_availability for current IDs"}
	case errors.Is(err, group.ErrGroupNotFound), errors.Is(err, repository.ErrUnknownGroup):
		return &APIError{Code: CodeNotFound, Message: "group not found", RecoveryHint: "Check the group ID"}
	case errors.Is(err, group.ErrNotMember):
		return &APIError{Code: CodeForbidden, Message: "not a member of this group", RecoveryHint: "Call join_group first"}
	case errors.Is(err, group.ErrNotOwner):
		return &APIError{Code: CodeForbidden, Message: "only the group owner can do this"}
	case errors.Is(err, group.ErrJoinDenied):
		return &APIError{Code: CodeForbidden, Message: "this group is private", RecoveryHint: "Ask the owner for an invitation token"}
	case errors.Is(err, group.ErrOwnerCannotLeave):
		return &APIError{Code: CodeForbidden, Message: "the group owner cannot leave or be removed"}
	case errors.Is(err, availability.ErrLocked):
		return &APIError{Code: CodeLocked, Message: "a concurrent change is in progress", RecoveryHint: "Retry shortly"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
