package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/metrics"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/sirupsen/logrus"
)

type JobService struct {
	store repository.Store
	log   *logrus.Entry
}

func NewJobService(store repository.Store, log *logrus.Entry) *JobService {
	return &JobService{store: store, log: log}
}

func (s *JobService) Create(ctx context.Context, id models.Identity, req dtos.JobCreationRequest) (*models.Job, error) {
	job := req.ToModel()
	job.PostedByID = id.UserID
	if err := s.store.Jobs.Create(ctx, &job); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"job_id": job.ID, "owner_id": id.UserID}).Info("job posted")
	return &job, nil
}

// List is the public board: no applicant records and no owner contact details.
func (s *JobService) List(ctx context.Context) ([]models.Job, error) {
	jobs, err := nonNil(s.store.Jobs.List(ctx))
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].PublicView()
	}
	return jobs, nil
}

func (s *JobService) MyJobs(ctx context.Context, id models.Identity) ([]models.Job, error) {
	jobs, err := nonNil(s.store.Jobs.ListByOwner(ctx, id.UserID))
	for i := range jobs {
		jobs[i].ApplicationCount = len(jobs[i].Applications)
	}
	return jobs, err
}

// Get returns a job with its applicants to the owner or an admin, and the public view to anyone
// else. viewer is nil for anonymous callers.
func (s *JobService) Get(ctx context.Context, viewer *models.Identity, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.store.Jobs.GetByID(ctx, jobID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Job not found")
	}
	if err != nil {
		return nil, err
	}
	if viewer != nil && (viewer.Is(models.RoleAdmin) || viewer.UserID == job.PostedByID) {
		job.ApplicationCount = len(job.Applications)
		return job, nil
	}
	job.PublicView()
	return job, nil
}

// Update edits a job the caller posted. Jobs posted by someone else look missing.
func (s *JobService) Update(ctx context.Context, id models.Identity, jobID uuid.UUID, req dtos.JobUpdateRequest) (*models.Job, error) {
	job, err := s.owned(ctx, id, jobID, "Job not found or you don't have permission to update it")
	if err != nil {
		return nil, err
	}
	req.Apply(job)
	job.Applications = nil
	if err := s.store.Jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Delete removes a job the caller posted together with every application to it, and tells each
// affected applicant.
func (s *JobService) Delete(ctx context.Context, id models.Identity, jobID uuid.UUID) (*models.Job, error) {
	var (
		deleted *models.Job
		removed []models.Application
	)
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		job, err := s.owned(ctx, id, jobID, "Job not found or you don't have permission to delete it")
		if err != nil {
			return err
		}
		removed, err = s.store.Applications.DeleteByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		deleted, err = s.store.Jobs.DeleteOwned(ctx, job.ID, id.UserID)
		if err != nil {
			return err
		}
		note := jobRemovedNote(job)
		for _, app := range removed {
			if err := s.store.Users.PushNotification(ctx, app.UserID, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationEvents("cascaded", len(removed))
	s.log.WithFields(logrus.Fields{
		"job_id":               jobID,
		"owner_id":             id.UserID,
		"applications_removed": len(removed),
	}).Info("job deleted")
	return deleted, nil
}

func (s *JobService) owned(ctx context.Context, id models.Identity, jobID uuid.UUID, missing string) (*models.Job, error) {
	job, err := s.store.Jobs.GetByID(ctx, jobID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound(missing)
	}
	if err != nil {
		return nil, err
	}
	if job.PostedByID != id.UserID {
		return nil, apperr.NotFound(missing)
	}
	return job, nil
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
