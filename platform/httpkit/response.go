// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"smartlead_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the standard success response format: {"status": ..., "data": ...}.
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 OK success envelope with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Data: payload})
}

// Created sends a 201 Created success envelope with the given payload.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, Envelope{Status: "success", Data: payload})
}

// Warning sends a 200 envelope with warning status. Used by webhook endpoints
// that must acknowledge receipt (so the provider stops retrying) while
// signalling that no lead action was taken.
func Warning(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Status: "warning", Data: gin.H{"message": message}})
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError maps domain errors to HTTP responses.
// If the error is a typed *apperr.Error, it uses the error's Kind to determine
// the HTTP status code. Otherwise, it defaults to 500 Internal Server Error.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := err.(*apperr.Error); ok {
		message := domainErr.Message
		if domainErr.Kind == apperr.KindUpstream && domainErr.Err != nil {
			// Preserve provider detail for diagnosis.
			message = domainErr.Message + ": " + domainErr.Err.Error()
		}
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	return true
}
