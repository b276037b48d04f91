// Package repository declares the document store the services depend on.
//
// Implementations return *apperr.Error values: CodeNotFound for missing rows and CodeConflict for
// uniqueness violations, so services can branch on apperr.Is without knowing the backend.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/models"
)

type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	PushNotification(ctx context.Context, userID uuid.UUID, n models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Jobs interface {
	Create(ctx context.Context, job *models.Job) error
	// GetByID populates PostedBy and Applications (with applicants), applications in apply order.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// List returns every job newest first with PostedBy populated.
	List(ctx context.Context) ([]models.Job, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	// DeleteOwned removes the job only when ownerID posted it and returns the removed row.
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Job, error)
}

type Applications interface {
	// Create fails with CodeConflict when (UserID, JobID) already has an application.
	Create(ctx context.Context, app *models.Application) error
	// GetByID populates User and Job.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindByUserAndJob(ctx context.Context, userID, jobID uuid.UUID) (*models.Application, error)
	// FindForReview populates User and Job and leaves the resume bytes unloaded.
	FindForReview(ctx context.Context, id uuid.UUID) (*models.Application, error)
	// FindOwned matches (id, applicant) and populates User and Job.
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Application, error)
	// ListByUser returns newest first with Job populated.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
	// UpdateStatus moves id from one status to another and fails with CodeConflict when the stored
	// status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ApplicationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByJob removes every application of jobID and returns them without resume bytes.
	DeleteByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
}

type Outbox interface {
	Enqueue(ctx context.Context, msg *models.OutboxMessage) error
	// ClaimDue returns up to limit pending messages due at now and pushes their next attempt out
	// by lease so concurrent dispatchers skip them.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

// Transactor runs fn so that every repository call made with the ctx it receives commits or rolls
// back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store struct {
	Users        Users
	Jobs         Jobs
	Applications Applications
	Outbox       Outbox
	Tx           Transactor
}
