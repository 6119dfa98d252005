package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/model"
)

type SyncTaskRepository interface {
	// Поставить задачу синхронизации в очередь.
	Enqueue(ctx context.Context, bookingID uuid.UUID, op model.SyncOp, at time.Time) (*model.SyncTask, error)
	// Задачи, готовые к выполнению, в порядке постановки.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.SyncTask, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	// Отложить повтор после неудачной попытки.
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error
	// Прекратить попытки.
	MarkDropped(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
}

type GormSyncTaskRepository struct {
	db *gorm.DB
}

func NewGormSyncTaskRepository(db *gorm.DB) *GormSyncTaskRepository {
	return &GormSyncTaskRepository{db: db}
}

func (r *GormSyncTaskRepository) Enqueue(
	ctx context.Context,
	bookingID uuid.UUID,
	op model.SyncOp,
	at time.Time,
) (*model.SyncTask, error) {
	task := &model.SyncTask{
		BookingID:     bookingID,
		Op:            op,
		Status:        model.SyncTaskPending,
		NextAttemptAt: at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (r *GormSyncTaskRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.SyncTask, error) {
	var tasks []model.SyncTask
	q := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.SyncTaskPending, now.UTC()).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormSyncTaskRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{
		"status":     model.SyncTaskDone,
		"last_error": "",
	})
}

func (r *GormSyncTaskRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"attempts":        attempts,
		"next_attempt_at": next.UTC(),
		"last_error":      lastErr,
	})
}

func (r *GormSyncTaskRepository) MarkDropped(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"status":     model.SyncTaskDropped,
		"attempts":   attempts,
		"last_error": lastErr,
	})
}

func (r *GormSyncTaskRepository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.SyncTask{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}
