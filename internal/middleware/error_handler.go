package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contains the error information
type ErrorDetails struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	TraceID   string                 `json:"trace_id"`
}

// CustomError represents a custom application error
type CustomError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
}

func (e CustomError) Error() string {
	return e.Message
}

// Common error codes
const (
	// Import pipeline errors
	ErrCodeWorkbookUnreadable = "WORKBOOK_UNREADABLE"
	ErrCodeSchemaInvalid      = "SCHEMA_INVALID"
	ErrCodeConfirmRequired    = "CONFIRMATION_REQUIRED"

	// General errors
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
)

var errorLogger = logrus.New()

func init() {
	errorLogger.SetFormatter(&logrus.JSONFormatter{})
}

// ErrorHandler is a middleware that handles errors in a consistent way
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			handleError(c, err.Err)
		}
	}
}

func handleError(c *gin.Context, err error) {
	var response ErrorResponse
	var statusCode int

	traceID, exists := c.Get("trace_id")
	if !exists {
		traceID = uuid.New().String()
	}

	if customErr, ok := err.(CustomError); ok {
		statusCode = customErr.StatusCode
		response = ErrorResponse{
			Error: ErrorDetails{
				Code:      customErr.Code,
				Message:   customErr.Message,
				Details:   customErr.Details,
				Timestamp: time.Now().UTC(),
				TraceID:   traceID.(string),
			},
		}
	} else {
		statusCode = http.StatusInternalServerError
		response = ErrorResponse{
			Error: ErrorDetails{
				Code:      ErrCodeInternalServer,
				Message:   "An unexpected error occurred",
				Timestamp: time.Now().UTC(),
				TraceID:   traceID.(string),
			},
		}
	}

	errorLogger.WithFields(logrus.Fields{
		"trace_id": response.Error.TraceID,
		"code":     response.Error.Code,
		"path":     c.Request.URL.Path,
		"method":   c.Request.Method,
	}).Error(err)

	c.JSON(statusCode, response)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) CustomError {
	return CustomError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeDatabaseError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewWorkbookUnreadableError marks a file that could not be parsed at all.
func NewWorkbookUnreadableError(err error) CustomError {
	return CustomError{
		Code:       ErrCodeWorkbookUnreadable,
		Message:    "Uploaded file is not a readable workbook",
		StatusCode: http.StatusBadRequest,
		Details: map[string]interface{}{
			"error": err.Error(),
		},
	}
}

// NewSchemaInvalidError marks a workbook whose sheets failed validation.
func NewSchemaInvalidError(errors []string) CustomError {
	return CustomError{
		Code:       ErrCodeSchemaInvalid,
		Message:    "Workbook failed schema validation",
		StatusCode: http.StatusUnprocessableEntity,
		Details: map[string]interface{}{
			"errors": errors,
		},
	}
}

// NewConfirmRequiredError rejects a replace-mode import without the explicit
// confirmation flag.
func NewConfirmRequiredError() CustomError {
	return CustomError{
		Code:       ErrCodeConfirmRequired,
		Message:    "Replace mode deletes existing data and requires confirmReplace=true",
		StatusCode: http.StatusBadRequest,
	}
}
