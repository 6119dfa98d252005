package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статус учётной записи.
type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "active"
	AccountStatusWithdrawal AccountStatus = "withdrawal"
	AccountStatusSuspended  AccountStatus = "suspended"
	AccountStatusDeleted    AccountStatus = "deleted"
)

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username    string        `gorm:"type:varchar(40);not null;uniqueIndex"`
	Email       string        `gorm:"type:varchar(128);not null;uniqueIndex"`
	DisplayName string        `gorm:"type:varchar(40);not null"`
	IsHost      bool          `gorm:"not null;default:false"`
	Status      AccountStatus `gorm:"type:varchar(16);not null;default:'active'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsActive — учётная запись не удалена и не заблокирована.
func (u *User) IsActive() bool {
	return u.Status == AccountStatusActive
}

// oauth_accounts — внешние учётные записи, уникальны по (provider, provider_account_id).
type OAuthAccount struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Provider          string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_provider_account"`
	ProviderAccountID string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_provider_account"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (a *OAuthAccount) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
