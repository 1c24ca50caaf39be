package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// Envelope is the body of every JSON response the API writes.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	ErrorWithDetails(c, statusCode, code, message, nil)
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, Envelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// ValidationFailed answers 400 with the failing fields keyed by json name.
// An empty fields map leaves details out.
func ValidationFailed(c *gin.Context, message string, fields map[string]string) {
	if len(fields) == 0 {
		Error(c, http.StatusBadRequest, CodeValidation, message)
		return
	}
	ErrorWithDetails(c, http.StatusBadRequest, CodeValidation, message, fields)
}

// Internal answers 500 without leaking the cause; callers attach it with
// c.Error so the error logger can see it.
func Internal(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "Something went wrong")
}
