package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, products: products}
}

type ReviewInput struct {
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type ReviewListOutput struct {
	Items []model.Review `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	return nil
}

// 1ユーザー1商品1件
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, in ReviewInput) (model.Review, error) {
	if err := validateRating(in.Rating); err != nil {
		return model.Review{}, err
	}
	if in.ProductID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if _, err := u.products.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Review{}, productNotFound(in.ProductID)
		}
		return model.Review{}, dbError(err)
	}

	r, err := u.reviews.Create(ctx, model.Review{
		UserID:    userID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Review{}, NewHTTPError(http.StatusConflict, "review already exists")
	}
	if err != nil {
		return model.Review{}, dbError(err)
	}
	return r, nil
}

func (u *ReviewUsecase) Get(ctx context.Context, id int64) (model.Review, error) {
	r, err := u.reviews.FindByID(ctx, id)
	if err != nil {
		return model.Review{}, notFoundOr(err, "review not found")
	}
	return r, nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	list, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ReviewUsecase) ListByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	list, err := u.reviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ReviewUsecase) ListAll(ctx context.Context, page, limit int) (ReviewListOutput, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "limit must be <= 100")
	}
	list, total, err := u.reviews.ListAll(ctx, page, limit)
	if err != nil {
		return ReviewListOutput{}, dbError(err)
	}
	return ReviewListOutput{Items: list, Total: total, Page: page, Limit: limit}, nil
}

// 本人のみ
func (u *ReviewUsecase) Update(ctx context.Context, userID, id int64, in ReviewInput) (model.Review, error) {
	if err := validateRating(in.Rating); err != nil {
		return model.Review{}, err
	}
	r, err := u.Get(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if r.UserID != userID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "not your review")
	}

	r.Rating = in.Rating
	r.Comment = strings.TrimSpace(in.Comment)
	if err := u.reviews.Update(ctx, r); err != nil {
		return model.Review{}, notFoundOr(err, "review not found")
	}
	return r, nil
}

// 本人かadmin
func (u *ReviewUsecase) Delete(ctx context.Context, userID int64, admin bool, id int64) error {
	r, err := u.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != userID && !admin {
		return NewHTTPError(http.StatusForbidden, "not your review")
	}
	if err := u.reviews.Delete(ctx, id); err != nil {
		return notFoundOr(err, "review not found")
	}
	return nil
}
