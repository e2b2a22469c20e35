// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/models"
)

// Context keys shared by middleware and handlers.
const (
	ContextKeyLang      = "lang"
	ContextKeyRequestID = "request_id"
	ContextKeyClientID  = "client_id"
)

func PreparedResponse(c *gin.Context, resp *models.SuccessResponse) {
	resp.Success = true
	c.JSON(http.StatusOK, resp)
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}, retryable bool) {
	c.JSON(statusCode, models.ErrorResponse{
		Success: false,
		Error: models.ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			Retryable: retryable,
			RequestID: GetRequestIDFromContext(c),
		},
	})
}

func AbortWithError(c *gin.Context, statusCode int, code, message string, details interface{}, retryable bool) {
	ErrorResponse(c, statusCode, code, message, details, retryable)
	c.Abort()
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetRequestIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

func GetClientIDFromContext(c *gin.Context) string {
	if id := c.GetString(ContextKeyClientID); id != "" {
		return id
	}
	return c.ClientIP()
}
