package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"userapi/internal/handler"
	"userapi/internal/metrics"
	"userapi/internal/service/auth"
	"userapi/internal/util"
)

func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, handler.Response{
				Success: false,
				Error:   "Token nao fornecido",
			})
			c.Abort()
			return
		}

		claims, err := authService.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.Response{
				Success: false,
				Error:   "Token invalido",
			})
			c.Abort()
			return
		}

		// store identity in context so handlers can use it
		c.Set("user_id", claims.UserID)
		c.Set("claims", claims)

		c.Next()
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
