package model

import "time"

type AuditAction string

const (
	AuditActionUpdateStock          AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus    AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdatePaymentStatus  AuditAction = "UPDATE_PAYMENT_STATUS"
	AuditActionUpdateShipmentStatus AuditAction = "UPDATE_SHIPMENT_STATUS"
	AuditActionUpdateUserRole       AuditAction = "UPDATE_USER_ROLE"
	AuditActionUpdateUserActive     AuditAction = "UPDATE_USER_ACTIVE"
)

type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourcePayment  AuditResourceType = "payment"
	AuditResourceShipment AuditResourceType = "shipment"
	AuditResourceUser     AuditResourceType = "user"
)

// 管理者操作ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//変更前後はJSON文字列
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime" json:"created_at"`
}
