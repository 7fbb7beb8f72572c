package middleware

import (
	"log/slog"
	"net/http"

	"handicraft-store/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last public error if the handler left the
// response unwritten.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		for i := len(c.Errors) - 1; i >= 0; i-- {
			err := c.Errors[i]
			if !err.IsType(gin.ErrorTypePublic) {
				continue
			}
			if resp, ok := err.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if len(c.Errors) == 0 {
			return
		}
		writeEnvelope(c, http.StatusInternalServerError, "Internal server error")
	}
}

func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("recovered from panic",
					"panic", rec,
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c))
				writeEnvelope(c, http.StatusInternalServerError, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFound and MethodNotAllowed keep unknown routes on the same error
// envelope as the API.
func NotFound(c *gin.Context) {
	writeEnvelope(c, http.StatusNotFound, "Route not found")
}

func MethodNotAllowed(c *gin.Context) {
	writeEnvelope(c, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeEnvelope(c *gin.Context, status int, msg string) {
	resp := httperr.Response{Status: status}
	resp.Error.Message = msg
	c.JSON(status, resp)
}
