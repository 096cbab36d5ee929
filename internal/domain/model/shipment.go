package model

import "time"

type Transporter struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	PhoneNumber string    `gorm:"type:varchar(30)" json:"phone_number"`
	Address     string    `gorm:"type:varchar(512)" json:"address"`
	Email       string    `gorm:"type:varchar(255)" json:"email"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusShipped   ShipmentStatus = "shipped"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCanceled  ShipmentStatus = "canceled"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending: {ShipmentStatusShipped, ShipmentStatusCanceled},
	ShipmentStatusShipped: {ShipmentStatusDelivered},
}

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusPending, ShipmentStatusShipped, ShipmentStatusDelivered, ShipmentStatusCanceled:
		return true
	}
	return false
}

func (s ShipmentStatus) Terminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCanceled
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, n := range shipmentTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// 注文ごとに0または1件
type Shipment struct {
	ID                    int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID               int64          `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID                int64          `gorm:"not null;index" json:"user_id"`
	TransporterID         int64          `gorm:"not null;index" json:"transporter_id"`
	AddressID             int64          `gorm:"not null" json:"address_id"`
	ShipmentDate          *time.Time     `json:"shipment_date"`
	EstimatedDeliveryDate *time.Time     `json:"estimated_delivery_date"`
	Status                ShipmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt             time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
