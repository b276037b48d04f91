package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/justsurfingit/connect-jobs/internal/upload"
	"github.com/sirupsen/logrus"
)

type ApplicationHandler struct {
	Applications *services.ApplicationService
	Resumes      *upload.Intake
	Log          *logrus.Entry
}

func NewApplicationHandler(apps *services.ApplicationService, resumes *upload.Intake, log *logrus.Entry) *ApplicationHandler {
	return &ApplicationHandler{Applications: apps, Resumes: resumes, Log: log}
}

// Apply is POST /applications/:id/apply where :id is the job. The resume is the "file" field.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	fh, err := formFile(c, "file")
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	resume, err := h.Resumes.Decode(fh)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	app, err := h.Applications.Apply(c.Request.Context(), identity(c), jobID, resume)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully!", "application": app})
}

func (h *ApplicationHandler) MyApplications(c *gin.Context) {
	apps, err := h.Applications.MyApplications(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Applications.Approve(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application approved, notification saved and email queued", "application": app})
}

func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Applications.Reject(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application rejected, notification saved and email queued", "application": app})
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Applications.Withdraw(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application deleted successfully"})
}

func (h *ApplicationHandler) Resume(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	blob, err := h.Applications.ResumeOf(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	serveFile(c, blob)
}
