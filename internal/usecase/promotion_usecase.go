package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type PromotionUsecase struct {
	promotions repo.PromotionRepository
	products   repo.ProductRepository
}

func NewPromotionUsecase(promotions repo.PromotionRepository, products repo.ProductRepository) *PromotionUsecase {
	return &PromotionUsecase{promotions: promotions, products: products}
}

type PromotionInput struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
}

var maxPercentage = decimal.NewFromInt(100)

func (in *PromotionInput) normalize() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Description = strings.TrimSpace(in.Description)
	if in.Code == "" || len(in.Code) > 100 {
		return NewHTTPError(http.StatusBadRequest, "code is required")
	}

	t := model.PromotionType(in.Type)
	if !t.Valid() {
		return NewHTTPError(http.StatusBadRequest, "type must be percentage or fixed")
	}
	if in.Value.Sign() <= 0 {
		return NewHTTPError(http.StatusBadRequest, "value must be > 0")
	}
	if t == model.PromotionTypePercentage && in.Value.GreaterThan(maxPercentage) {
		return NewHTTPError(http.StatusBadRequest, "percentage must be <= 100")
	}

	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return NewHTTPError(http.StatusBadRequest, "starts_at and ends_at are required")
	}
	in.StartsAt = in.StartsAt.UTC()
	in.EndsAt = in.EndsAt.UTC()
	if !in.EndsAt.After(in.StartsAt) {
		return NewHTTPError(http.StatusBadRequest, "ends_at must be after starts_at")
	}
	return nil
}

func (u *PromotionUsecase) List(ctx context.Context) ([]model.Promotion, error) {
	list, err := u.promotions.List(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *PromotionUsecase) Get(ctx context.Context, id int64) (model.Promotion, error) {
	p, err := u.promotions.FindByID(ctx, id)
	if err != nil {
		return model.Promotion{}, notFoundOr(err, "promotion not found")
	}
	return p, nil
}

func (u *PromotionUsecase) Create(ctx context.Context, in PromotionInput) (model.Promotion, error) {
	if err := in.normalize(); err != nil {
		return model.Promotion{}, err
	}
	p, err := u.promotions.Create(ctx, model.Promotion{
		Code:        in.Code,
		Description: in.Description,
		Type:        model.PromotionType(in.Type),
		Value:       in.Value,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Promotion{}, NewHTTPError(http.StatusConflict, "promotion code already exists")
	}
	if err != nil {
		return model.Promotion{}, dbError(err)
	}
	return p, nil
}

func (u *PromotionUsecase) Update(ctx context.Context, id int64, in PromotionInput) (model.Promotion, error) {
	if err := in.normalize(); err != nil {
		return model.Promotion{}, err
	}
	p, err := u.Get(ctx, id)
	if err != nil {
		return model.Promotion{}, err
	}

	p.Code = in.Code
	p.Description = in.Description
	p.Type = model.PromotionType(in.Type)
	p.Value = in.Value
	p.StartsAt = in.StartsAt
	p.EndsAt = in.EndsAt

	err = u.promotions.Update(ctx, p)
	if errors.Is(err, repo.ErrConflict) {
		return model.Promotion{}, NewHTTPError(http.StatusConflict, "promotion code already exists")
	}
	if err != nil {
		return model.Promotion{}, notFoundOr(err, "promotion not found")
	}
	return p, nil
}

func (u *PromotionUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.promotions.Delete(ctx, id); err != nil {
		return notFoundOr(err, "promotion not found")
	}
	return nil
}

func (u *PromotionUsecase) Assign(ctx context.Context, productID, promotionID int64) error {
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return productNotFound(productID)
		}
		return dbError(err)
	}
	if _, err := u.Get(ctx, promotionID); err != nil {
		return err
	}
	if err := u.promotions.Assign(ctx, productID, promotionID); err != nil {
		return dbError(err)
	}
	return nil
}

func (u *PromotionUsecase) Unassign(ctx context.Context, productID, promotionID int64) error {
	if err := u.promotions.Unassign(ctx, productID, promotionID); err != nil {
		return notFoundOr(err, "promotion not assigned")
	}
	return nil
}

func (u *PromotionUsecase) ListByProduct(ctx context.Context, productID int64) ([]model.Promotion, error) {
	list, err := u.promotions.ListByProductID(ctx, productID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}
