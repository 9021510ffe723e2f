package dashboard

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorCode is the machine readable code of an error response.
type ErrorCode string

const (
	ErrorCodeAnalysisNotRun  ErrorCode = "ANALYSIS_NOT_RUN"
	ErrorCodeInvalidQuery    ErrorCode = "INVALID_QUERY"
	ErrorCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrorCodeTableUnreadable ErrorCode = "TABLE_UNREADABLE"
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

type APIError struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func SendError(c *gin.Context, statusCode int, code ErrorCode, message string) {
	c.AbortWithStatusJSON(statusCode, &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	})
}
