package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type outboxRepo struct{ base }

func (r outboxRepo) Enqueue(ctx context.Context, msg *models.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = models.OutboxPending
	}
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = time.Now().UTC()
	}
	return translate(r.conn(ctx).Create(msg).Error, "outbox message")
}

func (r outboxRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxMessage, error) {
	var msgs []models.OutboxMessage
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
			Order("next_attempt_at ASC").
			Limit(limit).
			Find(&msgs).Error
		if err != nil || len(msgs) == 0 {
			return err
		}
		ids := make([]uuid.UUID, 0, len(msgs))
		for _, m := range msgs {
			ids = append(ids, m.ID)
		}
		return tx.Model(&models.OutboxMessage{}).
			Where("id IN ?", ids).
			Update("next_attempt_at", now.Add(lease)).Error
	})
	if err != nil {
		return nil, translate(err, "outbox message")
	}
	return msgs, nil
}

func (r outboxRepo) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     models.OutboxSent,
		"sent_at":    at,
		"last_error": "",
	})
}

func (r outboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"attempts":        attempts,
		"next_attempt_at": next,
		"last_error":      lastErr,
	})
}

func (r outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     models.OutboxFailed,
		"attempts":   attempts,
		"last_error": lastErr,
	})
}

func (r outboxRepo) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.conn(ctx).Model(&models.OutboxMessage{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "outbox message")
	}
	if res.RowsAffected == 0 {
		return notFound("outbox message")
	}
	return nil
}

func (r outboxRepo) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res := r.conn(ctx).Where("status = ? AND sent_at < ?", models.OutboxSent, before).Delete(&models.OutboxMessage{})
	return res.RowsAffected, translate(res.Error, "outbox message")
}

func (r outboxRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.OutboxMessage{}).Where("status = ?", models.OutboxPending).Count(&n).Error
	return n, translate(err, "outbox message")
}
