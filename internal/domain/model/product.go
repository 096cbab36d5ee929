package model

import (
	"time"

	"gorm.io/gorm"
)

// Stockは在庫台帳の現在値（マイナスにならない）
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID    *int64         `gorm:"index" json:"category_id"`
	SubcategoryID *int64         `gorm:"index" json:"subcategory_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null" json:"price"`
	Stock         int64          `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive      bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// 画像ファイル自体は扱わない。パスだけ持つ
type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	ImagePath string    `gorm:"type:varchar(512);not null" json:"image_path"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
