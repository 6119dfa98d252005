package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendanceScheduled     AttendanceStatus = "scheduled"
	AttendanceAttended      AttendanceStatus = "attended"
	AttendanceNoShow        AttendanceStatus = "no_show"
	AttendanceCancelled     AttendanceStatus = "cancelled"
	AttendanceSameDayCancel AttendanceStatus = "same_day_cancel"
	AttendanceLate          AttendanceStatus = "late"
)

// bookings — уникальны по (guest_id, when_date, time_slot_id): это последняя
// защита от двойного бронирования при гонке запросов.
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	GuestID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_booking_guest_when_slot,priority:1"`
	WhenDate   datatypes.Date `gorm:"column:when_date;not null;index;uniqueIndex:uq_booking_guest_when_slot,priority:2"`
	TimeSlotID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uq_booking_guest_when_slot,priority:3"`

	Topic       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text;not null"`

	AttendanceStatus AttendanceStatus `gorm:"type:varchar(32);not null;default:'scheduled';index"`

	// Идентификатор события во внешнем календаре, появляется после синхронизации.
	ExternalEventID *string `gorm:"type:varchar(1024)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Guest    *User     `gorm:"foreignKey:GuestID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TimeSlot *TimeSlot `gorm:"foreignKey:TimeSlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
