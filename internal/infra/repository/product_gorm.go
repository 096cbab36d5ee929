package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)

// 公開商品のみを、検索/価格帯/カテゴリ/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	// 大文字小文字を無視してnameを検索
	if s := strings.TrimSpace(q.Q); s != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if q.SubcategoryID != nil {
		tx = tx.Where("subcategory_id = ?", *q.SubcategoryID)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset, limit := pageOffset(q.Page, q.Limit)
	if err := tx.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// SELECT ... FOR UPDATE（ID昇順）
func (r *ProductGormRepository) LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// 在庫は台帳側（InventoryRepository）で更新する
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"is_active":      p.IsActive,
		"category_id":    p.CategoryID,
		"subcategory_id": p.SubcategoryID,
	}))
}

func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Product{}, id))
}

type ProductImageGormRepository struct {
	db *gorm.DB
}

func NewProductImageGormRepository(db *gorm.DB) *ProductImageGormRepository {
	return &ProductImageGormRepository{db: db}
}

var _ repo.ProductImageRepository = (*ProductImageGormRepository)(nil)

// 最初の1枚は自動でprimaryにする
func (r *ProductImageGormRepository) Create(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.ProductImage{}).Where("product_id = ?", img.ProductID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			img.IsPrimary = true
		}
		if img.IsPrimary && n > 0 {
			if err := tx.Model(&model.ProductImage{}).
				Where("product_id = ?", img.ProductID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&img).Error
	})
	if err != nil {
		return model.ProductImage{}, mapErr(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var list []model.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary desc").
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.ProductImage{}, err
	}
	return list, nil
}

func (r *ProductImageGormRepository) FindByID(ctx context.Context, imageID int64) (model.ProductImage, error) {
	var img model.ProductImage
	if err := r.db.WithContext(ctx).Where("id = ?", imageID).First(&img).Error; err != nil {
		return model.ProductImage{}, mapErr(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) FindPrimary(ctx context.Context, productID int64) (model.ProductImage, error) {
	var img model.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_primary = ?", productID, true).
		First(&img).Error; err != nil {
		return model.ProductImage{}, mapErr(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) SetPrimary(ctx context.Context, productID int64, imageID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ProductImage{}).
			Where("product_id = ?", productID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return affected(tx.Model(&model.ProductImage{}).
			Where("id = ? AND product_id = ?", imageID, productID).
			Update("is_primary", true))
	})
}

func (r *ProductImageGormRepository) Delete(ctx context.Context, imageID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.ProductImage{}, imageID))
}
