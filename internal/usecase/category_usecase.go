package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
}

func NewCategoryUsecase(categories repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categories: categories}
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	return nil
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	c, err := u.categories.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, notFoundOr(err, "category not found")
	}
	return c, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	if err := in.normalize(); err != nil {
		return model.Category{}, err
	}
	c, err := u.categories.Create(ctx, model.Category{Name: in.Name, Description: in.Description})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category name already exists")
	}
	if err != nil {
		return model.Category{}, dbError(err)
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if err := in.normalize(); err != nil {
		return model.Category{}, err
	}
	c, err := u.Get(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	c.Name = in.Name
	c.Description = in.Description

	err = u.categories.Update(ctx, c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category name already exists")
	}
	if err != nil {
		return model.Category{}, notFoundOr(err, "category not found")
	}
	return c, nil
}

// サブカテゴリか商品が残っていたら消せない
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}

	subs, err := u.categories.CountSubcategories(ctx, id)
	if err != nil {
		return dbError(err)
	}
	products, err := u.categories.CountProducts(ctx, &id, nil)
	if err != nil {
		return dbError(err)
	}
	if subs > 0 || products > 0 {
		return NewHTTPError(http.StatusConflict, "category has subcategories or products")
	}

	if err := u.categories.Delete(ctx, id); err != nil {
		return notFoundOr(err, "category not found")
	}
	return nil
}

// ===== subcategories =====

func (u *CategoryUsecase) ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	if _, err := u.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	list, err := u.categories.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *CategoryUsecase) GetSubcategory(ctx context.Context, id int64) (model.Subcategory, error) {
	s, err := u.categories.FindSubcategoryByID(ctx, id)
	if err != nil {
		return model.Subcategory{}, notFoundOr(err, "subcategory not found")
	}
	return s, nil
}

func (u *CategoryUsecase) CreateSubcategory(ctx context.Context, categoryID int64, in CategoryInput) (model.Subcategory, error) {
	if err := in.normalize(); err != nil {
		return model.Subcategory{}, err
	}
	if _, err := u.Get(ctx, categoryID); err != nil {
		return model.Subcategory{}, err
	}
	s, err := u.categories.CreateSubcategory(ctx, model.Subcategory{
		CategoryID:  categoryID,
		Name:        in.Name,
		Description: in.Description,
	})
	if err != nil {
		return model.Subcategory{}, dbError(err)
	}
	return s, nil
}

func (u *CategoryUsecase) UpdateSubcategory(ctx context.Context, id int64, in CategoryInput) (model.Subcategory, error) {
	if err := in.normalize(); err != nil {
		return model.Subcategory{}, err
	}
	s, err := u.GetSubcategory(ctx, id)
	if err != nil {
		return model.Subcategory{}, err
	}
	s.Name = in.Name
	s.Description = in.Description
	if err := u.categories.UpdateSubcategory(ctx, s); err != nil {
		return model.Subcategory{}, notFoundOr(err, "subcategory not found")
	}
	return s, nil
}

func (u *CategoryUsecase) DeleteSubcategory(ctx context.Context, id int64) error {
	s, err := u.GetSubcategory(ctx, id)
	if err != nil {
		return err
	}
	n, err := u.categories.CountProducts(ctx, nil, &s.ID)
	if err != nil {
		return dbError(err)
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "subcategory has products")
	}
	if err := u.categories.DeleteSubcategory(ctx, id); err != nil {
		return notFoundOr(err, "subcategory not found")
	}
	return nil
}

// 商品のcategory_id/subcategory_idの整合性チェック
func (u *CategoryUsecase) ValidatePlacement(ctx context.Context, categoryID, subcategoryID *int64) error {
	if subcategoryID != nil && categoryID == nil {
		return NewHTTPError(http.StatusBadRequest, "subcategory_id requires category_id")
	}
	if categoryID != nil {
		if _, err := u.categories.FindByID(ctx, *categoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "category not found")
			}
			return dbError(err)
		}
	}
	if subcategoryID != nil {
		s, err := u.categories.FindSubcategoryByID(ctx, *subcategoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "subcategory not found")
		}
		if err != nil {
			return dbError(err)
		}
		if s.CategoryID != *categoryID {
			return NewHTTPError(http.StatusBadRequest, "subcategory does not belong to category")
		}
	}
	return nil
}
