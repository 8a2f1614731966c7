package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductFilter struct {
	Category   string
	Section    string
	ActiveOnly bool
	Offset     int
	Limit      int
}

func preloadProduct(db *gorm.DB) *gorm.DB {
	return db.Preload("Stock").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *GormRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := preloadProduct(r.DB.WithContext(ctx)).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductsByIDs returns the products found, keyed by id. Missing ids are
// simply absent.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var items []models.Product
	if err := preloadProduct(r.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Section != "" {
		q = q.Where("section = ?", f.Section)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := preloadProduct(q).Order("created_at DESC").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// UpdateProduct applies fields and, when non-nil, replaces the stock table
// and image list of the product.
func (r *GormRepo) UpdateProduct(ctx context.Context, id string, fields map[string]any, stock map[string]int, images []models.ProductImage) error {
	db := r.DB.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return gorm.ErrRecordNotFound
	}

	if len(fields) > 0 {
		if err := db.Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
	}

	if stock != nil {
		if err := db.Where("product_id = ?", id).Delete(&models.ProductStock{}).Error; err != nil {
			return err
		}
		rows := make([]models.ProductStock, 0, len(stock))
		for size, n := range stock {
			rows = append(rows, models.ProductStock{ProductID: id, Size: size, Available: n})
		}
		if len(rows) > 0 {
			if err := db.Create(&rows).Error; err != nil {
				return err
			}
		}
	}

	if images != nil {
		if err := db.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ID = 0
			images[i].ProductID = id
		}
		if len(images) > 0 {
			if err := db.Create(&images).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *GormRepo) DeactivateProduct(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
