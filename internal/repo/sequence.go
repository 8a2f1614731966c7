package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// NextOrderSequence bumps and returns the counter for day (YYYYMMDD). Two
// transactions creating the first row of a day race on the primary key; the
// loser gets gorm.ErrDuplicatedKey and is expected to retry.
func (r *GormRepo) NextOrderSequence(ctx context.Context, day string) (int64, error) {
	db := r.DB.WithContext(ctx)

	res := db.Model(&models.OrderSequence{}).Where("day = ?", day).Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if err := db.Create(&models.OrderSequence{Day: day, Value: 1}).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var seq models.OrderSequence
	if err := db.Where("day = ?", day).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
