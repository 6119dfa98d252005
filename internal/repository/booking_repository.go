package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/model"
)

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Сохранить изменённые поля бронирования.
	Update(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID вместе со слотом.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Сколько бронирований у гостя на дату и слот.
	Count(ctx context.Context, guestID uuid.UUID, when time.Time, timeSlotID uuid.UUID) (int64, error)
	// Сохранить идентификатор события во внешнем календаре.
	// Пустой eventID сбрасывает привязку к событию.
	SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error
	// Бронирования календаря хоста с пагинацией, новые даты первыми.
	ListByHost(ctx context.Context, hostID uuid.UUID, limit, offset int) ([]model.Booking, int64, error)
	// Бронирования гостя с пагинацией.
	ListByGuest(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]model.Booking, int64, error)
	// Бронирования календаря в интервале дат [from, to].
	ListByCalendarRange(ctx context.Context, calendarID uuid.UUID, from, to time.Time) ([]model.Booking, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *GormBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{
			"when_date":         booking.WhenDate,
			"time_slot_id":      booking.TimeSlotID,
			"topic":             booking.Topic,
			"description":       booking.Description,
			"attendance_status": booking.AttendanceStatus,
		}).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).Preload("TimeSlot").First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) Count(
	ctx context.Context,
	guestID uuid.UUID,
	when time.Time,
	timeSlotID uuid.UUID,
) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("guest_id = ? AND when_date = ? AND time_slot_id = ?", guestID, datatypes.Date(when), timeSlotID).
		Count(&total).Error
	return total, err
}

func (r *GormBookingRepository) SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	var value *string
	if eventID != "" {
		value = &eventID
	}
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Update("external_event_id", value).
		Error
}

func (r *GormBookingRepository) ListByHost(
	ctx context.Context,
	hostID uuid.UUID,
	limit, offset int,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN time_slots ON time_slots.id = bookings.time_slot_id").
		Joins("JOIN calendars ON calendars.id = time_slots.calendar_id").
		Where("calendars.host_id = ?", hostID)
	return paginateBookings(q, limit, offset)
}

func (r *GormBookingRepository) ListByGuest(
	ctx context.Context,
	guestID uuid.UUID,
	limit, offset int,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("bookings.guest_id = ?", guestID)
	return paginateBookings(q, limit, offset)
}

func (r *GormBookingRepository) ListByCalendarRange(
	ctx context.Context,
	calendarID uuid.UUID,
	from, to time.Time,
) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN time_slots ON time_slots.id = bookings.time_slot_id").
		Where("time_slots.calendar_id = ?", calendarID).
		Where("bookings.when_date >= ? AND bookings.when_date <= ?", datatypes.Date(from), datatypes.Date(to)).
		Preload("TimeSlot").
		Order("bookings.when_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func paginateBookings(q *gorm.DB, limit, offset int) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Preload("TimeSlot").Order("bookings.when_date DESC, bookings.created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
