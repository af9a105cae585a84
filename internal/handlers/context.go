package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/access"
)

// requestContext returns the request context, or a background context when the handler runs
// without a request.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// terminalRequest reads the caller metadata recorded with a decision. Blank source and method
// values are recorded as "unknown".
func terminalRequest(c *gin.Context) access.RequestContext {
	return access.RequestContext{
		Source: queryOrUnknown(c, "source"),
		Method: queryOrUnknown(c, "method"),
		Note:   c.Query("note"),
	}
}

func queryOrUnknown(c *gin.Context, key string) string {
	if value := strings.TrimSpace(c.Query(key)); value != "" {
		return value
	}
	return unknownTag
}

// presentedSecret returns the export secret from the X-Fallback-Token header, falling back to the
// token query parameter.
func presentedSecret(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(HeaderFallbackToken)); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("token"))
}
