package domain

import "errors"

var (
	// ErrAppointmentNotFound is a normal outcome: typo'd or stale room
	// links resolve to nothing.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrForbidden covers role/ownership denials on join, start and end.
	ErrForbidden = errors.New("forbidden")

	// ErrAppointmentCompleted marks rooms whose appointment is closed:
	// no further joins, and the call may never go active again.
	ErrAppointmentCompleted = errors.New("appointment already completed")

	ErrUnknownRole = errors.New("unknown role")
)
