package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/metrics"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/upload"
	"github.com/sirupsen/logrus"
)

// ApplicationService owns the application lifecycle: apply, review, withdraw.
// Every state change and the notifications it produces commit in one transaction.
type ApplicationService struct {
	store  repository.Store
	resume upload.Policy
	emails DecisionEmails
	log    *logrus.Entry
}

func NewApplicationService(store repository.Store, resume upload.Policy, emails DecisionEmails, log *logrus.Entry) *ApplicationService {
	return &ApplicationService{store: store, resume: resume, emails: emails, log: log}
}

func (s *ApplicationService) Apply(ctx context.Context, id models.Identity, jobID uuid.UUID, resume models.FileBlob) (*models.Application, error) {
	if !id.Is(models.RoleJobseeker) {
		return nil, apperr.Forbidden("Only job seekers can apply for jobs")
	}
	if err := s.resume.Check(resume); err != nil {
		return nil, err
	}

	job, err := s.store.Jobs.GetByID(ctx, jobID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Job not found")
	}
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobClosed {
		return nil, apperr.Validation("job is closed")
	}

	app := &models.Application{
		UserID: id.UserID,
		JobID:  job.ID,
		Resume: resume,
		Status: models.StatusPending,
	}
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Applications.FindByUserAndJob(ctx, id.UserID, job.ID)
		switch {
		case err == nil:
			return apperr.Conflict("You have already applied for this job.")
		case !apperr.Is(err, apperr.CodeNotFound):
			return err
		}
		if err := s.store.Applications.Create(ctx, app); err != nil {
			if apperr.Is(err, apperr.CodeConflict) {
				return apperr.Wrap(apperr.CodeConflict, "You have already applied for this job.", err)
			}
			return err
		}
		return s.store.Users.PushNotification(ctx, job.PostedByID, applicationSubmittedNote(job))
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationEvent("applied")
	s.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"job_id":         job.ID,
		"user_id":        id.UserID,
		"resume_bytes":   resume.Size,
	}).Info("application submitted")
	return app, nil
}

func (s *ApplicationService) Approve(ctx context.Context, id models.Identity, applicationID uuid.UUID) (*models.Application, error) {
	return s.decide(ctx, id, applicationID, models.StatusApproved)
}

func (s *ApplicationService) Reject(ctx context.Context, id models.Identity, applicationID uuid.UUID) (*models.Application, error) {
	return s.decide(ctx, id, applicationID, models.StatusRejected)
}

// decide moves a pending application to a terminal status, notifies the applicant in-app and
// queues the decision email.
func (s *ApplicationService) decide(ctx context.Context, id models.Identity, applicationID uuid.UUID, to models.ApplicationStatus) (*models.Application, error) {
	app, err := s.store.Applications.FindForReview(ctx, applicationID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Application not found")
	}
	if err != nil {
		return nil, err
	}
	if app.Job == nil || app.User == nil {
		return nil, apperr.Internal("application is missing its job or applicant", nil)
	}
	if !id.Is(models.RoleAdmin) && app.Job.PostedByID != id.UserID {
		return nil, apperr.Forbidden("You can only review applications for your own jobs")
	}
	if app.Status.Terminal() {
		return nil, apperr.Conflict("Application has already been " + string(app.Status))
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Applications.UpdateStatus(ctx, app.ID, models.StatusPending, to); err != nil {
			return err
		}
		app.Status = to
		if err := s.store.Users.PushNotification(ctx, app.UserID, decisionNote(app.Job, to)); err != nil {
			return err
		}
		msg, err := s.emails.Compose(app, app.User, app.Job)
		if err != nil {
			return apperr.Internal("failed to compose decision email", err)
		}
		return s.store.Outbox.Enqueue(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationEvent(string(to))
	s.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"reviewer_id":    id.UserID,
		"status":         to,
	}).Info("application decided")
	app.User = app.User.Contact()
	return app, nil
}

// Withdraw deletes the caller's own application and tells the job owner.
func (s *ApplicationService) Withdraw(ctx context.Context, id models.Identity, applicationID uuid.UUID) error {
	app, err := s.store.Applications.FindOwned(ctx, applicationID, id.UserID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return apperr.NotFound("Application not found or you don't have permission to delete it")
	}
	if err != nil {
		return err
	}
	if app.Job == nil || app.User == nil {
		return apperr.Internal("application is missing its job or applicant", nil)
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Applications.Delete(ctx, app.ID); err != nil {
			return err
		}
		return s.store.Users.PushNotification(ctx, app.Job.PostedByID, withdrawnNote(app.Job, app.User))
	})
	if err != nil {
		return err
	}

	metrics.ApplicationEvent("withdrawn")
	s.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"user_id":        id.UserID,
	}).Info("application withdrawn")
	return nil
}

// MyApplications lists the caller's applications newest first with their jobs.
func (s *ApplicationService) MyApplications(ctx context.Context, id models.Identity) ([]models.Application, error) {
	apps, err := s.store.Applications.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

// ResumeOf returns the stored resume to the applicant, the job owner or an admin.
func (s *ApplicationService) ResumeOf(ctx context.Context, id models.Identity, applicationID uuid.UUID) (models.FileBlob, error) {
	app, err := s.store.Applications.GetByID(ctx, applicationID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return models.FileBlob{}, apperr.NotFound("Application not found")
	}
	if err != nil {
		return models.FileBlob{}, err
	}
	allowed := id.Is(models.RoleAdmin) ||
		app.UserID == id.UserID ||
		(app.Job != nil && app.Job.PostedByID == id.UserID)
	if !allowed {
		return models.FileBlob{}, apperr.Forbidden("Access denied")
	}
	if app.Resume.Empty() {
		return models.FileBlob{}, apperr.NotFound("Resume not found")
	}
	return app.Resume, nil
}
