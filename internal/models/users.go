package models

import "time"

// User is keyed by the external (Telegram) identity.
type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username    string    `gorm:"not null;index" json:"username"`
	AdminRights bool      `gorm:"not null;default:false" json:"admin_rights"`
	CreatedAt   time.Time `json:"created_at"`
}

// TelegramSession binds a Telegram login to an expiry.
type TelegramSession struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TelegramID int64     `gorm:"not null;uniqueIndex" json:"telegram_id"`
	Username   string    `gorm:"not null;index" json:"username"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName overrides the default pluralization
func (TelegramSession) TableName() string {
	return "sessions"
}
