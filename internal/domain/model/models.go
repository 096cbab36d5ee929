package model

// マイグレーション対象
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Address{},
		&PhoneNumber{},
		&Category{},
		&Subcategory{},
		&Product{},
		&ProductImage{},
		&Promotion{},
		&ProductPromotion{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Transporter{},
		&Shipment{},
		&Review{},
		&AuditLog{},
		&InventoryAdjustment{},
	}
}
