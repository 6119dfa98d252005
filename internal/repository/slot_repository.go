package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/model"
)

type SlotRepository interface {
	// Все слоты календаря, по времени начала.
	ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]model.TimeSlot, error)
	// Слот по ID, только если он принадлежит календарю.
	GetInCalendar(ctx context.Context, id, calendarID uuid.UUID) (*model.TimeSlot, error)
	// Создать слот.
	Create(ctx context.Context, slot *model.TimeSlot) error
	// Есть ли в календаре слот с общим днём недели и пересекающимся временем.
	HasOverlap(ctx context.Context, calendarID uuid.UUID, start, end datatypes.Time, weekdays []int) (bool, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) ListByCalendar(ctx context.Context, calendarID uuid.UUID) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) GetInCalendar(ctx context.Context, id, calendarID uuid.UUID) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("id = ? AND calendar_id = ?", id, calendarID).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

// HasOverlap проверяет пересечение на стороне БД: интервалы [start, end)
// пересекаются, если start_time < end AND end_time > start, а дни недели
// сравниваются через разворачивание JSON-массива.
func (r *GormSlotRepository) HasOverlap(
	ctx context.Context,
	calendarID uuid.UUID,
	start, end datatypes.Time,
	weekdays []int,
) (bool, error) {
	if len(weekdays) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("calendar_id = ?", calendarID).
		Where("start_time < ? AND end_time > ?", end, start).
		Where(weekdayMembershipExpr(r.db.Dialector.Name()), weekdays).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// weekdayMembershipExpr: выражение "в массиве weekdays есть один из дней ?"
// для конкретного диалекта.
func weekdayMembershipExpr(dialect string) string {
	if dialect == "postgres" {
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(time_slots.weekdays::jsonb) AS wd(day) WHERE wd.day::int IN ?)"
	}
	return "EXISTS (SELECT 1 FROM json_each(time_slots.weekdays) AS wd WHERE wd.value IN ?)"
}
