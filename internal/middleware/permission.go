package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/pkg/errors"
	"github.com/openmakers/badgegate/pkg/metrics"
	"github.com/openmakers/badgegate/pkg/response"
)

// RequirePermission checks that the authenticated administrator's token grants permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.HasPermission(permission) {
			metrics.AdminAuthorizations.WithLabelValues(permission, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.AdminAuthorizations.WithLabelValues(permission, "allowed").Inc()
		c.Next()
	}
}
