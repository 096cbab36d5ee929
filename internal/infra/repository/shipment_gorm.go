package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransporterGormRepository struct {
	db *gorm.DB
}

func NewTransporterGormRepository(db *gorm.DB) *TransporterGormRepository {
	return &TransporterGormRepository{db: db}
}

var _ repo.TransporterRepository = (*TransporterGormRepository)(nil)

func (r *TransporterGormRepository) Create(ctx context.Context, t model.Transporter) (model.Transporter, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return model.Transporter{}, mapErr(err)
	}
	return t, nil
}

func (r *TransporterGormRepository) List(ctx context.Context) ([]model.Transporter, error) {
	var list []model.Transporter
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return []model.Transporter{}, err
	}
	return list, nil
}

func (r *TransporterGormRepository) FindByID(ctx context.Context, id int64) (model.Transporter, error) {
	var t model.Transporter
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return model.Transporter{}, mapErr(err)
	}
	return t, nil
}

func (r *TransporterGormRepository) Update(ctx context.Context, t model.Transporter) error {
	return affected(r.db.WithContext(ctx).Model(&model.Transporter{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"name":         t.Name,
		"phone_number": t.PhoneNumber,
		"address":      t.Address,
		"email":        t.Email,
	}))
}

func (r *TransporterGormRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Transporter{}, id))
}

type ShipmentGormRepository struct {
	db *gorm.DB
}

func NewShipmentGormRepository(db *gorm.DB) *ShipmentGormRepository {
	return &ShipmentGormRepository{db: db}
}

var _ repo.ShipmentRepository = (*ShipmentGormRepository)(nil)

func (r *ShipmentGormRepository) Create(ctx context.Context, s *model.Shipment) error {
	return mapErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *ShipmentGormRepository) FindByID(ctx context.Context, id int64) (model.Shipment, error) {
	var s model.Shipment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return model.Shipment{}, mapErr(err)
	}
	return s, nil
}

func (r *ShipmentGormRepository) LockByID(ctx context.Context, id int64) (model.Shipment, error) {
	var s model.Shipment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error; err != nil {
		return model.Shipment{}, mapErr(err)
	}
	return s, nil
}

func (r *ShipmentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Shipment, error) {
	var s model.Shipment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&s).Error; err != nil {
		return model.Shipment{}, mapErr(err)
	}
	return s, nil
}

func (r *ShipmentGormRepository) List(ctx context.Context, f repo.ShipmentListFilter) ([]model.Shipment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Shipment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TransporterID != nil {
		q = q.Where("transporter_id = ?", *f.TransporterID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Shipment{}, 0, err
	}

	offset, limit := pageOffset(f.Page, f.Limit)
	var list []model.Shipment
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return []model.Shipment{}, 0, err
	}
	return list, total, nil
}

// ステータス以外の項目
func (r *ShipmentGormRepository) Update(ctx context.Context, s model.Shipment) error {
	return affected(r.db.WithContext(ctx).Model(&model.Shipment{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"transporter_id":          s.TransporterID,
		"address_id":              s.AddressID,
		"shipment_date":           s.ShipmentDate,
		"estimated_delivery_date": s.EstimatedDeliveryDate,
	}))
}

func (r *ShipmentGormRepository) UpdateStatus(ctx context.Context, id int64, status model.ShipmentStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Shipment{}).
		Where("id = ?", id).
		Update("status", status))
}

func (r *ShipmentGormRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Shipment{}, id))
}

func (r *ShipmentGormRepository) CountByTransporter(ctx context.Context, transporterID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Shipment{}).Where("transporter_id = ?", transporterID).Count(&n).Error
	return n, err
}
