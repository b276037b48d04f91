package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/sirupsen/logrus"
)

// respondError maps err to its status and logs server-side failures with their cause.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// identity is set by RequireAuth; a missing value means the route was wired without it.
func identity(c *gin.Context) models.Identity {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		panic("handlers: route requires authentication middleware")
	}
	return id
}

// formFile reads the multipart field, reporting a body over the server limit as TooLarge.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err == nil {
		return fh, nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return nil, apperr.New(apperr.CodeTooLarge, "File too large")
	}
	return nil, apperr.Validation("No file uploaded")
}

func serveFile(c *gin.Context, blob models.FileBlob) {
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(blob.Name))
	c.Data(http.StatusOK, blob.MediaType, blob.Data)
}
