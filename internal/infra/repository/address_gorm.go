package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) *AddressGormRepository {
	return &AddressGormRepository{db: db}
}

var _ repo.AddressRepository = (*AddressGormRepository)(nil)

func (r *AddressGormRepository) Create(ctx context.Context, a model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return a, nil
}

// デフォルトを先頭に
func (r *AddressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default desc").
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.Address{}, err
	}
	return list, nil
}

func (r *AddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&a).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return a, nil
}

func (r *AddressGormRepository) Update(ctx context.Context, a model.Address) error {
	return affected(r.db.WithContext(ctx).Model(&model.Address{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"recipient":   a.Recipient,
		"street":      a.Street,
		"complement":  a.Complement,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	}))
}

func (r *AddressGormRepository) Delete(ctx context.Context, addressID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Address{}, addressID))
}

func (r *AddressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Address{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return affected(tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Update("is_default", true))
	})
}

type PhoneNumberGormRepository struct {
	db *gorm.DB
}

func NewPhoneNumberGormRepository(db *gorm.DB) *PhoneNumberGormRepository {
	return &PhoneNumberGormRepository{db: db}
}

var _ repo.PhoneNumberRepository = (*PhoneNumberGormRepository)(nil)

func (r *PhoneNumberGormRepository) Create(ctx context.Context, p model.PhoneNumber) (model.PhoneNumber, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.PhoneNumber{}, mapErr(err)
	}
	return p, nil
}

func (r *PhoneNumberGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.PhoneNumber, error) {
	var list []model.PhoneNumber
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&list).Error; err != nil {
		return []model.PhoneNumber{}, err
	}
	return list, nil
}

func (r *PhoneNumberGormRepository) FindByID(ctx context.Context, phoneID int64) (model.PhoneNumber, error) {
	var p model.PhoneNumber
	if err := r.db.WithContext(ctx).Where("id = ?", phoneID).First(&p).Error; err != nil {
		return model.PhoneNumber{}, mapErr(err)
	}
	return p, nil
}

func (r *PhoneNumberGormRepository) Update(ctx context.Context, p model.PhoneNumber) error {
	return affected(r.db.WithContext(ctx).Model(&model.PhoneNumber{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"number": p.Number,
		"label":  p.Label,
	}))
}

func (r *PhoneNumberGormRepository) Delete(ctx context.Context, phoneID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.PhoneNumber{}, phoneID))
}
