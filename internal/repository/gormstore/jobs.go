package gormstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRepo struct{ base }

func applicationsInOrder(db *gorm.DB) *gorm.DB {
	return db.Omit("resume_data").Order("applied_at ASC")
}

// contactColumns limits a preloaded user to what models.User.Contact exposes.
func contactColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "full_name", "email")
}

func (r jobRepo) Create(ctx context.Context, job *models.Job) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(job).Error, "job")
}

func (r jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.conn(ctx).
		Preload("PostedBy", contactColumns).
		Preload("Applications", applicationsInOrder).
		Preload("Applications.User", contactColumns).
		First(&job, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "job")
	}
	return &job, nil
}

func (r jobRepo) List(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := r.conn(ctx).
		Preload("PostedBy", contactColumns).
		Preload("Applications", func(db *gorm.DB) *gorm.DB { return db.Select("id", "job_id") }).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, translate(err, "job")
}

func (r jobRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := r.conn(ctx).
		Preload("Applications", applicationsInOrder).
		Preload("Applications.User", contactColumns).
		Where("posted_by_id = ?", ownerID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, translate(err, "job")
}

func (r jobRepo) Update(ctx context.Context, job *models.Job) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Save(job).Error, "job")
}

func (r jobRepo) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Job, error) {
	var job models.Job
	db := r.conn(ctx)
	if err := db.Where("id = ? AND posted_by_id = ?", id, ownerID).First(&job).Error; err != nil {
		return nil, translate(err, "job")
	}
	if err := db.Delete(&models.Job{}, "id = ?", job.ID).Error; err != nil {
		return nil, translate(err, "job")
	}
	return &job, nil
}
