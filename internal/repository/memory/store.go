// Package memory is an in-process repository.Store for local runs and tests.
//
// It enforces the same uniqueness rules as the SQL schema. WithinTx serialises callers but does
// not roll back on error.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
)

type state struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	users         map[uuid.UUID]models.User
	notifications map[uuid.UUID][]models.Notification
	jobs          map[uuid.UUID]models.Job
	applications  map[uuid.UUID]models.Application
	outbox        map[uuid.UUID]models.OutboxMessage
	now           func() time.Time
}

func New() repository.Store {
	s := &state{
		users:         make(map[uuid.UUID]models.User),
		notifications: make(map[uuid.UUID][]models.Notification),
		jobs:          make(map[uuid.UUID]models.Job),
		applications:  make(map[uuid.UUID]models.Application),
		outbox:        make(map[uuid.UUID]models.OutboxMessage),
		now:           func() time.Time { return time.Now().UTC() },
	}
	return repository.Store{
		Users:        userRepo{s},
		Jobs:         jobRepo{s},
		Applications: applicationRepo{s},
		Outbox:       outboxRepo{s},
		Tx:           transactor{s},
	}
}

type txKey struct{}

type transactor struct{ s *state }

func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// --- users ---

type userRepo struct{ s *state }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("user already exists")
		}
		if user.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *user.PhoneNumber {
			return apperr.Conflict("user already exists")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleJobseeker
	}
	stored := *user
	stored.Notifications = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			found := user
			return &found, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return apperr.NotFound("user not found")
	}
	for id, existing := range r.s.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("user already exists")
		}
		if user.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *user.PhoneNumber {
			return apperr.Conflict("user already exists")
		}
	}
	user.UpdatedAt = r.s.now()
	stored := *user
	stored.Notifications = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) PushNotification(_ context.Context, userID uuid.UUID, n models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return apperr.NotFound("notification references a missing record")
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	n.UserID = userID
	r.s.notifications[userID] = append(r.s.notifications[userID], n)
	return nil
}

func (r userRepo) ListNotifications(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.Notification(nil), r.s.notifications[userID]...), nil
}

func (r userRepo) MarkNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	items := r.s.notifications[userID]
	for i := range items {
		if !items[i].Read {
			items[i].Read = true
			n++
		}
	}
	return n, nil
}

// --- jobs ---

type jobRepo struct{ s *state }

func (r jobRepo) Create(_ context.Context, job *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[job.PostedByID]; !ok {
		return apperr.NotFound("job references a missing record")
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobOpen
	}
	now := r.s.now()
	job.CreatedAt, job.UpdatedAt = now, now
	stored := *job
	stored.PostedBy, stored.Applications = nil, nil
	r.s.jobs[job.ID] = stored
	return nil
}

func (r jobRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job not found")
	}
	r.s.populateJob(&job, true)
	return &job, nil
}

func (r jobRepo) List(_ context.Context) ([]models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.jobsWhere(func(models.Job) bool { return true }, false), nil
}

func (r jobRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.jobsWhere(func(j models.Job) bool { return j.PostedByID == ownerID }, true), nil
}

func (r jobRepo) Update(_ context.Context, job *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.jobs[job.ID]
	if !ok {
		return apperr.NotFound("job not found")
	}
	job.PostedByID = existing.PostedByID
	job.CreatedAt = existing.CreatedAt
	job.UpdatedAt = r.s.now()
	stored := *job
	stored.PostedBy, stored.Applications = nil, nil
	r.s.jobs[job.ID] = stored
	return nil
}

func (r jobRepo) DeleteOwned(_ context.Context, id, ownerID uuid.UUID) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok || job.PostedByID != ownerID {
		return nil, apperr.NotFound("job not found")
	}
	delete(r.s.jobs, id)
	return &job, nil
}

func (s *state) jobsWhere(keep func(models.Job) bool, withApplicants bool) []models.Job {
	var jobs []models.Job
	for _, job := range s.jobs {
		if keep(job) {
			s.populateJob(&job, withApplicants)
			jobs = append(jobs, job)
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

func (s *state) populateJob(job *models.Job, withApplicants bool) {
	if owner, ok := s.users[job.PostedByID]; ok {
		job.PostedBy = owner.Contact()
	}
	job.Applications = s.applicationsWhere(func(a models.Application) bool { return a.JobID == job.ID })
	for i := range job.Applications {
		job.Applications[i].Resume.Data = nil
		if !withApplicants {
			continue
		}
		if applicant, ok := s.users[job.Applications[i].UserID]; ok {
			job.Applications[i].User = applicant.Contact()
		}
	}
}

// --- applications ---

type applicationRepo struct{ s *state }

func (r applicationRepo) Create(_ context.Context, app *models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[app.JobID]; !ok {
		return apperr.NotFound("application references a missing record")
	}
	for _, existing := range r.s.applications {
		if existing.UserID == app.UserID && existing.JobID == app.JobID {
			return apperr.Conflict("application already exists")
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	now := r.s.now()
	if app.AppliedAt.IsZero() {
		app.AppliedAt = now
	}
	app.UpdatedAt = now
	stored := *app
	stored.User, stored.Job = nil, nil
	r.s.applications[app.ID] = stored
	return nil
}

func (r applicationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, apperr.NotFound("application not found")
	}
	r.s.populateApplication(&app)
	return &app, nil
}

func (r applicationRepo) FindForReview(_ context.Context, id uuid.UUID) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, apperr.NotFound("application not found")
	}
	r.s.populateApplication(&app)
	app.Resume.Data = nil
	return &app, nil
}

func (r applicationRepo) FindByUserAndJob(_ context.Context, userID, jobID uuid.UUID) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, app := range r.s.applications {
		if app.UserID == userID && app.JobID == jobID {
			found := app
			return &found, nil
		}
	}
	return nil, apperr.NotFound("application not found")
}

func (r applicationRepo) FindOwned(_ context.Context, id, userID uuid.UUID) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok || app.UserID != userID {
		return nil, apperr.NotFound("application not found")
	}
	r.s.populateApplication(&app)
	app.Resume.Data = nil
	return &app, nil
}

func (r applicationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.s.applicationsWhere(func(a models.Application) bool { return a.UserID == userID })
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	for i := range items {
		if job, ok := r.s.jobs[items[i].JobID]; ok {
			items[i].Job = &job
		}
	}
	return items, nil
}

func (r applicationRepo) ListByJob(_ context.Context, jobID uuid.UUID) ([]models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.applicationsWhere(func(a models.Application) bool { return a.JobID == jobID }), nil
}

func (r applicationRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return apperr.NotFound("application not found")
	}
	if app.Status != from {
		return apperr.Conflict("application is no longer " + string(from))
	}
	app.Status = to
	app.UpdatedAt = r.s.now()
	r.s.applications[id] = app
	return nil
}

func (r applicationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[id]; !ok {
		return apperr.NotFound("application not found")
	}
	delete(r.s.applications, id)
	return nil
}

func (r applicationRepo) DeleteByJob(_ context.Context, jobID uuid.UUID) ([]models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.s.applicationsWhere(func(a models.Application) bool { return a.JobID == jobID })
	for i := range items {
		delete(r.s.applications, items[i].ID)
		items[i].Resume.Data = nil
	}
	return items, nil
}

// applicationsWhere returns matches in apply order.
func (s *state) applicationsWhere(keep func(models.Application) bool) []models.Application {
	var items []models.Application
	for _, app := range s.applications {
		if keep(app) {
			items = append(items, app)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AppliedAt.Equal(items[j].AppliedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].AppliedAt.Before(items[j].AppliedAt)
	})
	return items
}

func (s *state) populateApplication(app *models.Application) {
	if user, ok := s.users[app.UserID]; ok {
		app.User = &user
	}
	if job, ok := s.jobs[app.JobID]; ok {
		app.Job = &job
	}
}

// --- outbox ---

type outboxRepo struct{ s *state }

func (r outboxRepo) Enqueue(_ context.Context, msg *models.OutboxMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	now := r.s.now()
	if msg.Status == "" {
		msg.Status = models.OutboxPending
	}
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = now
	}
	msg.CreatedAt, msg.UpdatedAt = now, now
	r.s.outbox[msg.ID] = *msg
	return nil
}

func (r outboxRepo) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var due []models.OutboxMessage
	for _, msg := range r.s.outbox {
		if msg.Status == models.OutboxPending && !msg.NextAttemptAt.After(now) {
			due = append(due, msg)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, msg := range due {
		stored := r.s.outbox[msg.ID]
		stored.NextAttemptAt = now.Add(lease)
		r.s.outbox[msg.ID] = stored
	}
	return due, nil
}

func (r outboxRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(m *models.OutboxMessage) {
		m.Status = models.OutboxSent
		m.SentAt = &at
		m.LastError = ""
	})
}

func (r outboxRepo) MarkRetry(_ context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	return r.mutate(id, func(m *models.OutboxMessage) {
		m.Attempts = attempts
		m.NextAttemptAt = next
		m.LastError = lastErr
	})
}

func (r outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.mutate(id, func(m *models.OutboxMessage) {
		m.Status = models.OutboxFailed
		m.Attempts = attempts
		m.LastError = lastErr
	})
}

func (r outboxRepo) mutate(id uuid.UUID, fn func(*models.OutboxMessage)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg, ok := r.s.outbox[id]
	if !ok {
		return apperr.NotFound("outbox message not found")
	}
	fn(&msg)
	msg.UpdatedAt = r.s.now()
	r.s.outbox[id] = msg
	return nil
}

func (r outboxRepo) PurgeSent(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, msg := range r.s.outbox {
		if msg.Status == models.OutboxSent && msg.SentAt != nil && msg.SentAt.Before(before) {
			delete(r.s.outbox, id)
			n++
		}
	}
	return n, nil
}

func (r outboxRepo) CountPending(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, msg := range r.s.outbox {
		if msg.Status == models.OutboxPending {
			n++
		}
	}
	return n, nil
}

// Messages lists every outbox row; tests use it to inspect what was queued.
func Messages(store repository.Store) []models.OutboxMessage {
	repo, ok := store.Outbox.(outboxRepo)
	if !ok {
		return nil
	}
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()
	items := make([]models.OutboxMessage, 0, len(repo.s.outbox))
	for _, msg := range repo.s.outbox {
		items = append(items, msg)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}
