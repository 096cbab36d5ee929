package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type TransporterRepository interface {
	Create(ctx context.Context, t model.Transporter) (model.Transporter, error)
	List(ctx context.Context) ([]model.Transporter, error)
	FindByID(ctx context.Context, id int64) (model.Transporter, error)
	Update(ctx context.Context, t model.Transporter) error
	Delete(ctx context.Context, id int64) error
}

type ShipmentListFilter struct {
	Status        string
	TransporterID *int64
	Page          int
	Limit         int
}

type ShipmentRepository interface {
	//order_id重複はErrConflict
	Create(ctx context.Context, s *model.Shipment) error
	FindByID(ctx context.Context, id int64) (model.Shipment, error)
	LockByID(ctx context.Context, id int64) (model.Shipment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Shipment, error)
	List(ctx context.Context, f ShipmentListFilter) ([]model.Shipment, int64, error)
	Update(ctx context.Context, s model.Shipment) error
	UpdateStatus(ctx context.Context, id int64, status model.ShipmentStatus) error
	Delete(ctx context.Context, id int64) error
	CountByTransporter(ctx context.Context, transporterID int64) (int64, error)
}
