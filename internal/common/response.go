package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the standardized JSON response envelope.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError contains error details in the response.
type APIError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Success sends a successful JSON response with data.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error sends an error JSON response.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    statusCode,
			Message: message,
		},
	})
}

func errorWithKind(c *gin.Context, statusCode int, kind, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    statusCode,
			Kind:    kind,
			Message: message,
		},
	})
}

// HandleError inspects a domain error and sends the appropriate HTTP response.
// Transport failures are reported as 502 with the remote detail preserved; anything
// unclassified is hidden behind a generic 500.
func HandleError(c *gin.Context, err error) {
	kind := Kind(err)

	switch kind {
	case KindNotFound, KindTemplateNotFound:
		errorWithKind(c, http.StatusNotFound, kind, err.Error())
	case KindValidation, KindMissingField, KindCountMismatch, KindUnknownOperation, KindUnknownResource:
		errorWithKind(c, http.StatusBadRequest, kind, err.Error())
	case KindUnauthorized:
		errorWithKind(c, http.StatusUnauthorized, kind, err.Error())
	case KindTransport:
		errorWithKind(c, http.StatusBadGateway, kind, err.Error())
	default:
		errorWithKind(c, http.StatusInternalServerError, KindInternal, "internal server error")
	}
}
