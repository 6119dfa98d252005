package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Операция синхронизации с внешним календарём.
type SyncOp string

const (
	SyncOpCreate SyncOp = "create"
	SyncOpUpdate SyncOp = "update"
	SyncOpDelete SyncOp = "delete"
)

// Состояние задачи в outbox.
type SyncTaskStatus string

const (
	SyncTaskPending SyncTaskStatus = "pending"
	SyncTaskDone    SyncTaskStatus = "done"
	SyncTaskDropped SyncTaskStatus = "dropped"
)

// sync_tasks — outbox задач синхронизации бронирований с внешним календарём.
type SyncTask struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
	Op        SyncOp    `gorm:"type:varchar(16);not null"`

	Status        SyncTaskStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_sync_tasks_due,priority:1"`
	Attempts      int            `gorm:"not null;default:0"`
	NextAttemptAt time.Time      `gorm:"not null;index:idx_sync_tasks_due,priority:2"`
	LastError     string         `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (t *SyncTask) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
