package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"teamchat/internal/transport/httpdto"
	"teamchat/pkg/logger"
)

// ErrorHandler renders errors attached with c.Error by handlers that did
// not write a response themselves.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := httpdto.ErrorResponseFor(err)
		if l != nil && status >= 500 {
			l.WithContext(c.Request.Context()).Error("request_failed", zap.Error(err))
		}
		c.JSON(status, body)
	}
}
