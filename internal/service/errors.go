package service

import "errors"

var (
	// ErrNotAuthorized means the caller is not the permitted party for the
	// operation. Rejected, never silently applied.
	ErrNotAuthorized = errors.New("caller is not authorized for this operation")

	// ErrInvalidTransition means the record is not in a state the requested
	// transition starts from.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidTimeRange means end time is not strictly after start time.
	ErrInvalidTimeRange = errors.New("end time must be after start time")

	// ErrInvalidAmount means a payment amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrRoleMismatch means the target user does not have the role the
	// operation requires.
	ErrRoleMismatch = errors.New("user role does not permit this operation")

	// ErrMaintenanceDisabled gates the destructive reset flows.
	ErrMaintenanceDisabled = errors.New("maintenance operations are disabled in this environment")

	// ErrNoDates means a schedule request was submitted without any days.
	ErrNoDates = errors.New("at least one date is required")
)
