package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

type eventDetails struct {
	When       string           `json:"when"`
	TimeSlotID string           `json:"time_slot_id"`
	Status     string           `json:"attendance_status"`
	Fields     []calendar.Field `json:"fields,omitempty"`
}

// recordEvent пишет событие аудита об изменении бронирования.
func recordEvent(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	b *calendar.Booking,
	fields []calendar.Field,
	created bool,
) error {
	typ := model.EventTypeBookingUpdated
	switch {
	case created:
		typ = model.EventTypeBookingCreated
	case b.Status == calendar.StatusCancelled:
		typ = model.EventTypeBookingCancelled
	}

	details, err := json.Marshal(eventDetails{
		When:       b.When.Format(time.DateOnly),
		TimeSlotID: b.TimeSlotID.String(),
		Status:     string(b.Status),
		Fields:     fields,
	})
	if err != nil {
		return err
	}
	return repository.NewGormEventRepository(tx).Record(ctx, &model.Event{
		EventType: typ,
		UserID:    userID,
		BookingID: b.ID,
		Details:   datatypes.JSON(details),
	})
}
