package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/ratelimit"
)

// RateLimit keys on the authenticated user, falling back to the client ip.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if id, ok := IdentityFrom(c); ok {
			key = id.UserID.String()
		}
		if !limiter.Allow(c.Request.Context(), scope+":"+key) {
			abort(c, apperr.New(apperr.CodeRateLimited, "Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
