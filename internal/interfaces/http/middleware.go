package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

const principalKey = "principal"

// authMiddleware resolves the bearer token into a principal. Requests
// without a usable principal stop here with 401.
func authMiddleware(identity port.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, fmt.Errorf("%w: bearer token required", apperr.ErrUnauthenticated))
			c.Abort()
			return
		}

		p, err := identity.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// principalFrom returns the principal set by authMiddleware
func principalFrom(c *gin.Context) *entity.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*entity.Principal); ok {
			return p
		}
	}
	return nil
}

// loggingMiddleware logs every request once it completes
func loggingMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []interface{}{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if p := principalFrom(c); p != nil {
			fields = append(fields, "tenant_id", p.TenantID, "user_id", p.UserID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		logger.Info("HTTP request", fields...)
	}
}
