// Package services defines the business logic for users, medications and
// reminders. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// User-related errors.
var (
	// ErrUserExists is returned when registering a Home Assistant user twice.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotRegistered is returned when the caller has no user row yet.
	ErrUserNotRegistered = errors.New("user not registered")

	// ErrUserNotFound indicates that a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrHelpedUserNotFound is returned when a helper targets a user they do
	// not help.
	ErrHelpedUserNotFound = errors.New("helped user not found")

	// ErrForbidden is returned when a HELPED user acts on behalf of someone else.
	ErrForbidden = errors.New("not allowed to act for another user")
)

// Medication and reminder errors.
var (
	// ErrMedicationNotFound indicates that the medication does not exist or is
	// not visible to the caller.
	ErrMedicationNotFound = errors.New("medication not found")

	// ErrReminderNotFound indicates that the reminder does not exist or is not
	// visible to the caller.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrNextDateInPast is returned when a reminder would be moved before now.
	ErrNextDateInPast = errors.New("next date is in the past")
)

// ValidationError carries the client-facing message of a rejected input
// (for example "Invalid quantity.").
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field string) error {
	return &ValidationError{Message: "Invalid " + field + "."}
}
