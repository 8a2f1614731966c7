package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// DecrementStock takes qty units of one size if at least qty are available.
// The check and the write are a single statement, so two concurrent callers
// can never both take the last unit.
func (r *GormRepo) DecrementStock(ctx context.Context, productID, size string, qty int) (bool, error) {
	tx := r.DB.WithContext(ctx).Exec(`
UPDATE product_stocks
SET available = available - @q
WHERE product_id = @pid
  AND size = @size
  AND available >= @q
`, map[string]any{
		"pid":  productID,
		"size": size,
		"q":    qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *GormRepo) IncrementStock(ctx context.Context, productID, size string, qty int) error {
	db := r.DB.WithContext(ctx)
	tx := db.Exec(`
UPDATE product_stocks
SET available = available + @q
WHERE product_id = @pid
  AND size = @size
`, map[string]any{
		"pid":  productID,
		"size": size,
		"q":    qty,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		return nil
	}
	return db.Create(&models.ProductStock{ProductID: productID, Size: size, Available: qty}).Error
}

func (r *GormRepo) StockAvailable(ctx context.Context, productID, size string) (int, error) {
	var row models.ProductStock
	err := r.DB.WithContext(ctx).Where("product_id = ? AND size = ?", productID, size).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Available, nil
}
