package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"gorm.io/gorm/clause"
)

type applicationRepo struct{ base }

func (r applicationRepo) Create(ctx context.Context, app *models.Application) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(app).Error, "application")
}

func (r applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.conn(ctx).Preload("User").Preload("Job").First(&app, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "application")
	}
	return &app, nil
}

func (r applicationRepo) FindForReview(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.conn(ctx).Preload("User").Preload("Job").
		Omit("resume_data").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "application")
	}
	return &app, nil
}

func (r applicationRepo) FindByUserAndJob(ctx context.Context, userID, jobID uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.conn(ctx).Omit("resume_data").
		Where("user_id = ? AND job_id = ?", userID, jobID).
		First(&app).Error
	if err != nil {
		return nil, translate(err, "application")
	}
	return &app, nil
}

func (r applicationRepo) FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.conn(ctx).Preload("User").Preload("Job").
		Omit("resume_data").
		Where("id = ? AND user_id = ?", id, userID).
		First(&app).Error
	if err != nil {
		return nil, translate(err, "application")
	}
	return &app, nil
}

func (r applicationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	var items []models.Application
	err := r.conn(ctx).Preload("Job").
		Omit("resume_data").
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&items).Error
	return items, translate(err, "application")
}

func (r applicationRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	var items []models.Application
	err := r.conn(ctx).Omit("resume_data").
		Where("job_id = ?", jobID).
		Order("applied_at ASC").
		Find(&items).Error
	return items, translate(err, "application")
}

func (r applicationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ApplicationStatus) error {
	res := r.conn(ctx).Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error, "application")
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("application is no longer " + string(from))
	}
	return nil
}

func (r applicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.Application{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "application")
	}
	if res.RowsAffected == 0 {
		return notFound("application")
	}
	return nil
}

func (r applicationRepo) DeleteByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	var items []models.Application
	db := r.conn(ctx)
	if err := db.Omit("resume_data").Where("job_id = ?", jobID).Find(&items).Error; err != nil {
		return nil, translate(err, "application")
	}
	if err := db.Where("job_id = ?", jobID).Delete(&models.Application{}).Error; err != nil {
		return nil, translate(err, "application")
	}
	return items, nil
}
