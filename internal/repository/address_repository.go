package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	Delete(ctx context.Context, addressID int64) error
	//ユーザーのデフォルトを1件だけにする
	SetDefault(ctx context.Context, userID, addressID int64) error
}

type PhoneNumberRepository interface {
	Create(ctx context.Context, phone model.PhoneNumber) (model.PhoneNumber, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.PhoneNumber, error)
	FindByID(ctx context.Context, phoneID int64) (model.PhoneNumber, error)
	Update(ctx context.Context, phone model.PhoneNumber) error
	Delete(ctx context.Context, phoneID int64) error
}
