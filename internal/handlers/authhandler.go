package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieName   string
	SecureCookie bool
	Log          *logrus.Entry
}

func NewAuthHandler(auth *services.AuthService, cookieName string, secure bool, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{Auth: auth, CookieName: cookieName, SecureCookie: secure, Log: log}
}

func (h *AuthHandler) setCookie(c *gin.Context, sess session.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, sess.Token, maxAge, "/", "", h.SecureCookie, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, sess, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.setCookie(c, sess)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, sess, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.setCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully", "user": user, "token": sess.Token})
}

func (h *AuthHandler) Status(c *gin.Context) {
	user, err := h.Auth.Status(c.Request.Context(), identity(c), middleware.SessionToken(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.SetCookie(h.CookieName, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
