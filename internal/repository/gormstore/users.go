package gormstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"gorm.io/gorm/clause"
)

type userRepo struct{ base }

func (r userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(user).Error, "user")
}

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r userRepo) Update(ctx context.Context, user *models.User) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Save(user).Error, "user")
}

func (r userRepo) PushNotification(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	n.UserID = userID
	return translate(r.conn(ctx).Create(&n).Error, "notification")
}

func (r userRepo) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var items []models.Notification
	err := r.conn(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error
	return items, translate(err, "notification")
}

func (r userRepo) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.conn(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, translate(res.Error, "notification")
}
