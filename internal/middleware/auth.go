package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// Authenticator resolves the session cookie (or bearer token) to an Identity.
type Authenticator struct {
	Sessions   session.Store
	Users      repository.Users
	CookieName string
	Log        *logrus.Entry
}

func (a *Authenticator) token(c *gin.Context) string {
	if cookie, err := c.Cookie(a.CookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RequireAuth rejects requests without a live session. The role is read from the user record.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.token(c)
		if token == "" {
			abort(c, apperr.New(apperr.CodeUnauthorized, "Not authenticated"))
			return
		}
		id, err := a.resolve(c, token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a live session is presented. Requests without
// one, or with a stale one, continue anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := a.token(c); token != "" {
			if id, err := a.resolve(c, token); err == nil {
				c.Set(identityKey, id)
				c.Set(tokenKey, token)
			}
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context, token string) (models.Identity, error) {
	sess, err := a.Sessions.Get(c.Request.Context(), token)
	if errors.Is(err, session.ErrNotFound) {
		return models.Identity{}, apperr.New(apperr.CodeUnauthorized, "Session expired, please log in again")
	}
	if err != nil {
		a.Log.WithError(err).Error("session lookup failed")
		return models.Identity{}, apperr.Wrap(apperr.CodeUnavailable, "Session store unavailable", err)
	}
	user, err := a.Users.GetByID(c.Request.Context(), sess.UserID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return models.Identity{}, apperr.New(apperr.CodeUnauthorized, "Not authenticated")
	}
	if err != nil {
		a.Log.WithError(err).Error("user lookup failed")
		return models.Identity{}, err
	}
	return models.Identity{UserID: user.ID, Role: user.Role}, nil
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abort(c, apperr.New(apperr.CodeUnauthorized, "Not authenticated"))
			return
		}
		for _, role := range roles {
			if id.Is(role) {
				c.Next()
				return
			}
		}
		abort(c, apperr.Forbidden("Access denied"))
	}
}

func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// SessionToken returns the token RequireAuth accepted.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
}
