package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// calendars — один календарь на хоста.
type Calendar struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	HostID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// Темы для встречи, JSON-массив строк (JSONB в Postgres).
	Topics      datatypes.JSONSlice[string] `gorm:"not null"`
	Description string                      `gorm:"type:text;not null"`

	// Идентификатор календаря во внешнем сервисе (Google Calendar).
	ExternalCalendarID string `gorm:"type:varchar(1024)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Host  *User      `gorm:"foreignKey:HostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Slots []TimeSlot `gorm:"foreignKey:CalendarID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c *Calendar) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
