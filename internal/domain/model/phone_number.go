package model

import "time"

type PhoneNumber struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Number    string    `gorm:"type:varchar(30);not null" json:"number"`
	Label     string    `gorm:"type:varchar(50)" json:"label"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
