// Package handlers helper functions shared by every HTTP handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeforge/kernel/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response.
func writeError(c *gin.Context, statusCode int, err error) {
	c.JSON(statusCode, ErrorResponse{
		Code:    http.StatusText(statusCode),
		Message: err.Error(),
	})
}

// writeAppError maps application-level errors to HTTP status codes via each
// ErrorCode's own HTTPStatus(), masking the message on 5xx so internal detail
// never reaches the client.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		writeError(c, status, errors.New(errors.CodeInternal, "internal server error"))
		return
	}
	writeError(c, status, err)
}

