package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/justsurfingit/connect-jobs/internal/upload"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	Users    *services.UserService
	Pictures *upload.Intake
	Log      *logrus.Entry
}

func NewUserHandler(users *services.UserService, pictures *upload.Intake, log *logrus.Entry) *UserHandler {
	return &UserHandler{Users: users, Pictures: pictures, Log: log}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.Users.Me(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := h.Users.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dtos.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "data": user})
}

func (h *UserHandler) UpdatePicture(c *gin.Context) {
	fh, err := formFile(c, "file")
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	picture, err := h.Pictures.Decode(fh)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	user, err := h.Users.UpdatePicture(c.Request.Context(), identity(c), picture)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile picture updated successfully", "data": user.ProfilePicture})
}

func (h *UserHandler) Picture(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	blob, err := h.Users.Picture(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	serveFile(c, blob)
}

func (h *UserHandler) Notifications(c *gin.Context) {
	items, err := h.Users.Notifications(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *UserHandler) MarkNotificationsRead(c *gin.Context) {
	n, err := h.Users.MarkNotificationsRead(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked as read", "updated": n})
}
