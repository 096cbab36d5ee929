package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	products   repo.ProductRepository
	images     repo.ProductImageRepository
	promotions repo.PromotionRepository
	categories *CategoryUsecase
	now        func() time.Time
}

func NewProductUsecase(
	products repo.ProductRepository,
	images repo.ProductImageRepository,
	promotions repo.PromotionRepository,
	categories *CategoryUsecase,
) *ProductUsecase {
	return &ProductUsecase{
		products:   products,
		images:     images,
		promotions: promotions,
		categories: categories,
		now:        time.Now,
	}
}

// 公開用。プロモーション適用後の価格を付けて返す
type ProductView struct {
	model.Product
	EffectivePrice int64   `json:"effective_price"`
	PrimaryImage   *string `json:"primary_image,omitempty"`
}

type ProductListInput struct {
	Page          int
	Limit         int
	Q             string
	MinPrice      *int64
	MaxPrice      *int64
	CategoryID    *int64
	SubcategoryID *int64
	Sort          string
}

type ProductListOutput struct {
	Items []ProductView `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type ProductInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	Stock         int64  `json:"stock"`
	IsActive      *bool  `json:"is_active"`
	CategoryID    *int64 `json:"category_id"`
	SubcategoryID *int64 `json:"subcategory_id"`
}

type ProductImageInput struct {
	ImagePath string `json:"image_path"`
	IsPrimary bool   `json:"is_primary"`
}

func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (ProductListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "limit must be <= 100")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	list, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:          in.Page,
		Limit:         in.Limit,
		Q:             in.Q,
		MinPrice:      in.MinPrice,
		MaxPrice:      in.MaxPrice,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Sort:          in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}

	items := make([]ProductView, 0, len(list))
	for _, p := range list {
		v, err := u.view(ctx, p)
		if err != nil {
			return ProductListOutput{}, err
		}
		items = append(items, v)
	}
	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 非公開商品は存在しない扱い
func (u *ProductUsecase) Get(ctx context.Context, id int64) (ProductView, error) {
	p, err := u.products.FindByID(ctx, id)
	if err != nil {
		return ProductView{}, notFoundOr(err, "product not found")
	}
	if !p.IsActive {
		return ProductView{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	return u.view(ctx, p)
}

// 現時点の実売価格
func (u *ProductUsecase) EffectivePrice(ctx context.Context, p model.Product) (int64, error) {
	now := u.now().UTC()
	promos, err := u.promotions.ListActiveByProductID(ctx, p.ID, now)
	if err != nil {
		return 0, dbError(err)
	}
	return model.EffectivePrice(p.Price, promos, now), nil
}

func (u *ProductUsecase) view(ctx context.Context, p model.Product) (ProductView, error) {
	price, err := u.EffectivePrice(ctx, p)
	if err != nil {
		return ProductView{}, err
	}
	v := ProductView{Product: p, EffectivePrice: price}

	img, err := u.images.FindPrimary(ctx, p.ID)
	if err == nil {
		v.PrimaryImage = &img.ImagePath
	} else if !errors.Is(err, repo.ErrNotFound) {
		return ProductView{}, dbError(err)
	}
	return v, nil
}

// ===== admin =====

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminGet(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.products.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, notFoundOr(err, "product not found")
	}
	return p, nil
}

func (u *ProductUsecase) AdminCreate(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := in.normalize(); err != nil {
		return model.Product{}, err
	}
	if err := u.categories.ValidatePlacement(ctx, in.CategoryID, in.SubcategoryID); err != nil {
		return model.Product{}, err
	}

	active := false
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p, err := u.products.Create(ctx, model.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Stock:         in.Stock,
		IsActive:      active,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
	})
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

// 在庫は更新しない（在庫台帳のAPIで変える）
func (u *ProductUsecase) AdminUpdate(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	if err := in.normalize(); err != nil {
		return model.Product{}, err
	}
	if err := u.categories.ValidatePlacement(ctx, in.CategoryID, in.SubcategoryID); err != nil {
		return model.Product{}, err
	}
	p, err := u.AdminGet(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.CategoryID = in.CategoryID
	p.SubcategoryID = in.SubcategoryID
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := u.products.Update(ctx, p); err != nil {
		return model.Product{}, notFoundOr(err, "product not found")
	}
	return p, nil
}

func (u *ProductUsecase) AdminDelete(ctx context.Context, id int64) error {
	if err := u.products.SoftDelete(ctx, id); err != nil {
		return notFoundOr(err, "product not found")
	}
	return nil
}

// ===== images =====

func (u *ProductUsecase) ListImages(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	if _, err := u.AdminGet(ctx, productID); err != nil {
		return nil, err
	}
	list, err := u.images.ListByProductID(ctx, productID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ProductUsecase) PrimaryImage(ctx context.Context, productID int64) (model.ProductImage, error) {
	img, err := u.images.FindPrimary(ctx, productID)
	if err != nil {
		return model.ProductImage{}, notFoundOr(err, "image not found")
	}
	return img, nil
}

func (u *ProductUsecase) AddImage(ctx context.Context, productID int64, in ProductImageInput) (model.ProductImage, error) {
	path := strings.TrimSpace(in.ImagePath)
	if path == "" || len(path) > 512 {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "image_path is required")
	}
	if _, err := u.AdminGet(ctx, productID); err != nil {
		return model.ProductImage{}, err
	}

	img, err := u.images.Create(ctx, model.ProductImage{ProductID: productID, ImagePath: path})
	if err != nil {
		return model.ProductImage{}, dbError(err)
	}
	if in.IsPrimary && !img.IsPrimary {
		if err := u.images.SetPrimary(ctx, productID, img.ID); err != nil {
			return model.ProductImage{}, dbError(err)
		}
		img.IsPrimary = true
	}
	return img, nil
}

func (u *ProductUsecase) SetPrimaryImage(ctx context.Context, productID, imageID int64) (model.ProductImage, error) {
	img, err := u.ownedImage(ctx, productID, imageID)
	if err != nil {
		return model.ProductImage{}, err
	}
	if err := u.images.SetPrimary(ctx, productID, imageID); err != nil {
		return model.ProductImage{}, notFoundOr(err, "image not found")
	}
	img.IsPrimary = true
	return img, nil
}

func (u *ProductUsecase) DeleteImage(ctx context.Context, productID, imageID int64) error {
	if _, err := u.ownedImage(ctx, productID, imageID); err != nil {
		return err
	}
	if err := u.images.Delete(ctx, imageID); err != nil {
		return notFoundOr(err, "image not found")
	}
	return nil
}

func (u *ProductUsecase) ownedImage(ctx context.Context, productID, imageID int64) (model.ProductImage, error) {
	img, err := u.images.FindByID(ctx, imageID)
	if err != nil {
		return model.ProductImage{}, notFoundOr(err, "image not found")
	}
	if img.ProductID != productID {
		return model.ProductImage{}, NewHTTPError(http.StatusNotFound, "image not found")
	}
	return img, nil
}
