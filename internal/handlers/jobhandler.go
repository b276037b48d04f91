package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/sirupsen/logrus"
)

type JobHandler struct {
	Jobs      *services.JobService
	Extractor *services.JobExtractor
	Log       *logrus.Entry
}

func NewJobHandler(jobs *services.JobService, extractor *services.JobExtractor, log *logrus.Entry) *JobHandler {
	return &JobHandler{Jobs: jobs, Extractor: extractor, Log: log}
}

// ParseJob is POST /jobs/extract. It drafts a posting from a pasted job page.
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	draft, err := h.Extractor.Extract(c.Request.Context(), req.RawHTML)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": draft})
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	job, err := h.Jobs.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job posted successfully", "job": job})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.Jobs.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) MyJobs(c *gin.Context) {
	jobs, err := h.Jobs.MyJobs(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var viewer *models.Identity
	if caller, ok := middleware.IdentityFrom(c); ok {
		viewer = &caller
	}
	job, err := h.Jobs.Get(c.Request.Context(), viewer, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dtos.JobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	job, err := h.Jobs.Update(c.Request.Context(), identity(c), id, req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job updated successfully", "job": job})
}

// DeleteJob removes the job and every application to it.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.Delete(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully", "deletedJob": job})
}
