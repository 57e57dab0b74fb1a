package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"examprep/internal/exam"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondWithStatus(c, http.StatusOK, data, message)
}

func RespondWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	RespondErrorWithData(c, code, message, nil)
}

func RespondErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// ErrorStatus maps a service error to its HTTP status and public message.
func ErrorStatus(err error) (int, string) {
	var fetchErr *exam.FetchError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, exam.ErrSessionClosed):
		return http.StatusNotFound, "Test session not found"
	case errors.Is(err, exam.ErrSessionFinished):
		return http.StatusConflict, "Test already finished"
	case errors.Is(err, exam.ErrInvalidTransition):
		return http.StatusConflict, "Operation not allowed in the current test state"
	case errors.Is(err, exam.ErrUnknownQuestion):
		return http.StatusBadRequest, "Unknown question"
	case errors.Is(err, exam.ErrUnknownOption):
		return http.StatusBadRequest, "Option does not belong to question"
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "Could not load questions, please retry"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrInvalidPage):
		return http.StatusBadRequest, "Page must be greater than 0"
	case errors.Is(err, ErrInvalidPageSize):
		return http.StatusBadRequest, "Page size must be between 1 and 100"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// HandleServiceError writes the mapped error response and attaches err to the
// context so the request logger records it.
func HandleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	code, message := ErrorStatus(err)
	RespondError(c, code, message)
}
