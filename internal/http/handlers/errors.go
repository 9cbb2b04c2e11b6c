// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries an HTTP status, one of these stable codes and
// a human-readable message. The messages are the ones the add-on frontend
// displays (for example "Reminder not found."); clients branch on the code.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "Medication not found."
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeUnavailable      = "service_unavailable"
	ErrCodeInternal         = "internal_error"
)

// Client messages shared by several endpoints.
const (
	msgInvalidJSON  = "Invalid JSON body."
	msgInvalidID    = "Invalid parameter: id."
	msgInternal     = "Internal Server Error."
	msgNoPermission = "You do not have permission to access this resource."
	msgNotForOthers = "Your not allowed to add a reminder for an other user."
)
