package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/pkg/errors"
	"github.com/openmakers/badgegate/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxAdminIDKey = "adminID"
)

// Auth enforces admin bearer token authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.Validate(strings.TrimSpace(authz[7:]))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			response.Error(c, errors.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAdminIDKey, claims.AdminID)
		c.Next()
	}
}

// ClaimsFrom returns the admin claims attached by Auth.
func ClaimsFrom(c *gin.Context) (*iauth.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*iauth.Claims)
	return claims, ok && claims != nil
}
