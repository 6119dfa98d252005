package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// time_slots — еженедельное окно доступности: время суток + дни недели.
type TimeSlot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CalendarID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Время суток без даты.
	StartTime datatypes.Time `gorm:"not null"`
	EndTime   datatypes.Time `gorm:"not null"`

	// Дни недели 0..6 (понедельник = 0), JSON-массив; JSONB в Postgres.
	Weekdays datatypes.JSON `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Calendar *Calendar `gorm:"foreignKey:CalendarID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *TimeSlot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
