package group

import "errors"

var (
	// ErrGroupNotFound indicates the group doesn't exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotMember indicates the user doesn't belong to the group.
	ErrNotMember = errors.New("user is not a member of the group")

	// ErrNotOwner indicates the action requires the group owner.
	ErrNotOwner = errors.New("only the group owner can do this")

	// ErrOwnerCannotLeave indicates an attempt to drop the owner from the group.
	ErrOwnerCannotLeave = errors.New("the group owner cannot leave or be removed")

	// ErrJoinDenied indicates a private group joined without a valid,
	// enabled invitation token.
	ErrJoinDenied = errors.New("group is private and the invitation is missing or invalid")

	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("invalid input")
)
