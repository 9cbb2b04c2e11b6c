// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints: the error
// envelope, fail() which also logs server errors with the request-scoped
// logger, and ok() for JSON success bodies.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Reminder not found."
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Message shown to the user
	Message string `json:"message" example:"Reminder not found."`
}

// MessageResponse is returned by deletions.
type MessageResponse struct {
	Message string `json:"message" example:"Reminder removed successfully."`
}

// fail aborts the request with an ErrorResponse. Server errors are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail() for the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func badRequest(c *gin.Context, msg string) { fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg) }

// ok writes a JSON success body.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
