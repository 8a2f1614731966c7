package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderFilter struct {
	Status models.OrderStatus
	UserID string
	Offset int
	Limit  int
}

type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

type OrderTotals struct {
	Orders  int64
	Revenue float64
	Counts  []StatusCount
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC").Order("id ASC") })
}

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := preloadOrder(r.DB.WithContext(ctx)).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := preloadOrder(r.DB.WithContext(ctx)).Where("order_number = ?", number).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns a page of orders, newest first.
func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := preloadOrder(q).Order("created_at DESC").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// OrdersByIDs keeps the order of ids and skips the ones that no longer exist.
func (r *GormRepo) OrdersByIDs(ctx context.Context, ids []string) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.Order
	if err := preloadOrder(r.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.Order, len(rows))
	for _, o := range rows {
		byID[o.ID] = o
	}
	out := make([]models.Order, 0, len(rows))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchOrders matches order number, customer name and customer email.
func (r *GormRepo) SearchOrders(ctx context.Context, term string, offset, limit int) (int64, []models.Order, error) {
	like := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where(`LOWER(order_number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\' OR LOWER(customer_email) LIKE ? ESCAPE '\'`, like, like, like)

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := preloadOrder(q).Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// ErrStatusChanged is returned when the order no longer has the status the
// caller based its change on.
var ErrStatusChanged = errors.New("order status changed")

// UpdateOrderStatus writes fields and appends entry to the history, provided
// the order is still in status from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id string, from models.OrderStatus, fields map[string]any, entry *models.OrderStatusEntry) error {
	db := r.DB.WithContext(ctx)

	res := db.Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStatusChanged
	}

	entry.OrderID = id
	return db.Create(entry).Error
}

func (r *GormRepo) OrderTotals(ctx context.Context) (*OrderTotals, error) {
	db := r.DB.WithContext(ctx)
	out := &OrderTotals{}

	if err := db.Model(&models.Order{}).Count(&out.Orders).Error; err != nil {
		return nil, err
	}

	var revenue struct{ Revenue float64 }
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("status <> ?", models.OrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	out.Revenue = revenue.Revenue

	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&out.Counts).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AllOrders walks every order, oldest first, handing fn one page at a time.
func (r *GormRepo) AllOrders(ctx context.Context, status models.OrderStatus, fn func([]models.Order) error) error {
	const batch = 200

	for offset := 0; ; offset += batch {
		q := r.DB.WithContext(ctx).Model(&models.Order{})
		if status != "" {
			q = q.Where("status = ?", status)
		}

		var orders []models.Order
		if err := preloadOrder(q).Order("created_at ASC").Order("id ASC").Offset(offset).Limit(batch).Find(&orders).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		if err := fn(orders); err != nil {
			return err
		}
		if len(orders) < batch {
			return nil
		}
	}
}
