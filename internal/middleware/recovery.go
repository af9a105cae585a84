package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/response"
)

// PanicReporter receives recovered panics.
type PanicReporter interface {
	Report(ctx context.Context, component string, err error)
}

// InternalErrorMessage is the only detail clients see for unexpected failures.
const InternalErrorMessage = "Internal server error."

// Recovery converts panics into a 500 response, logs the error and hands it to reporter.
func Recovery(reporter PanicReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
				)
				if reporter != nil {
					reporter.Report(c.Request.Context(), "http", fmt.Errorf("panic: %v", r))
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.TerminalError{Error: InternalErrorMessage})
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Failure(c, http.StatusNotFound, fmt.Sprintf("route %s not found", c.Request.URL.Path))
}
