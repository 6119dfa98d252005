package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/model"
)

type CalendarRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Calendar, error)
	// Календарь хоста; у хоста не больше одного календаря.
	GetByHostID(ctx context.Context, hostID uuid.UUID) (*model.Calendar, error)
	Create(ctx context.Context, cal *model.Calendar) error
	Update(ctx context.Context, cal *model.Calendar) error
}

type GormCalendarRepository struct {
	db *gorm.DB
}

func NewGormCalendarRepository(db *gorm.DB) *GormCalendarRepository {
	return &GormCalendarRepository{db: db}
}

func (r *GormCalendarRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Calendar, error) {
	var c model.Calendar
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCalendarRepository) GetByHostID(ctx context.Context, hostID uuid.UUID) (*model.Calendar, error) {
	var c model.Calendar
	if err := r.db.WithContext(ctx).Where("host_id = ?", hostID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCalendarRepository) Create(ctx context.Context, cal *model.Calendar) error {
	return r.db.WithContext(ctx).Create(cal).Error
}

func (r *GormCalendarRepository) Update(ctx context.Context, cal *model.Calendar) error {
	return r.db.WithContext(ctx).
		Model(&model.Calendar{}).
		Where("id = ?", cal.ID).
		Updates(map[string]any{
			"topics":               cal.Topics,
			"description":          cal.Description,
			"external_calendar_id": cal.ExternalCalendarID,
		}).Error
}
