package handler

import (
	"github.com/gin-gonic/gin"

	"userapi/internal/apperrors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func respondData(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func respondList(c *gin.Context, status int, data any, count int) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
		Count:   &count,
	})
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.JSON(appErr.Status, Response{
		Success: false,
		Error:   appErr.Message,
	})
}
