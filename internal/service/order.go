package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

const (
	maxOrderAttempts  = 5
	sideEffectTimeout = 15 * time.Second
	statsCacheKey     = "orders:stats"
)

// OrderService owns checkout, the admin order views and status changes.
// Events, Index, Mailer and Cache are optional.
type OrderService struct {
	Repo   *repo.GormRepo
	Events Publisher
	Index  OrderIndexer
	Mailer Notifier
	Cache  Cache
	Now    func() time.Time

	wg sync.WaitGroup
}

type OrderPage struct {
	Orders     []models.Order  `json:"orders"`
	Pagination util.Pagination `json:"pagination"`
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Wait blocks until background side effects have finished.
func (s *OrderService) Wait() { s.wg.Wait() }

func (s *OrderService) background(ctx context.Context, name string, fn func(ctx context.Context) error) {
	l := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			l.Warn(name+"_failed", "error", err)
		}
	}()
}

// PlaceOrder validates the payload, checks it against the catalog and then
// decrements stock and stores the order in one transaction. userID is nil
// for guest checkout.
func (s *OrderService) PlaceOrder(ctx context.Context, req transport.CheckoutRequest, userID *string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	draft, err := ValidateOrder(req)
	if err != nil {
		return nil, err
	}

	products, err := s.Repo.ProductsByIDs(ctx, draft.ProductIDs())
	if err != nil {
		return nil, persistence("load products", err)
	}
	if err := checkPrices(draft, products); err != nil {
		return nil, err
	}

	owner, err := s.resolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 1; attempt <= maxOrderAttempts && order == nil; attempt++ {
		number, err := s.nextOrderNumber(ctx)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, persistence("allocate order number", err)
		}

		created, err := s.insertOrder(ctx, draft, number, products, owner)
		switch {
		case err == nil:
			order = created
		case errors.Is(err, gorm.ErrDuplicatedKey):
			l.Warn("order_number_collision", "order_number", number, "attempt", attempt)
		case errors.Is(err, ErrInsufficientStock):
			return nil, err
		default:
			return nil, persistence("create order", err)
		}
	}
	if order == nil {
		return nil, persistence("create order", fmt.Errorf("no unique order number after %d attempts", maxOrderAttempts))
	}

	l.Info("order_created", "order_number", order.OrderNumber, "total", order.Total, "guest", owner == nil)
	s.afterCreate(ctx, order)
	return order, nil
}

// checkPrices rejects lines whose product is gone or inactive, or whose
// price drifted from the catalog.
func checkPrices(d *OrderDraft, products map[string]models.Product) error {
	ve := &ValidationError{}
	for i, it := range d.Items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			ve.Add(fmt.Sprintf("items[%d].product", i), "Product not found or no longer available", it.ProductID)
			continue
		}
		if !money.Equal(p.Price, it.Price) {
			ve.Add(fmt.Sprintf("items[%d].price", i), fmt.Sprintf("Price changed, current price is %.2f", p.Price), it.Price)
		}
	}
	return ve.OrNil()
}

func (s *OrderService) resolveOwner(ctx context.Context, userID *string) (*models.User, error) {
	if userID == nil {
		return nil, nil
	}
	u, err := s.Repo.GetUserByID(ctx, *userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("load user", err)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}
	return u, nil
}

// nextOrderNumber commits its counter bump on its own, so a retry after a
// collision always sees a fresh value.
func (s *OrderService) nextOrderNumber(ctx context.Context) (string, error) {
	day := s.now().UTC().Format("20060102")

	var seq int64
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		v, err := tx.NextOrderSequence(ctx, day)
		seq = v
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%06d", day, seq), nil
}

func (s *OrderService) insertOrder(ctx context.Context, d *OrderDraft, number string, products map[string]models.Product, owner *models.User) (*models.Order, error) {
	order := buildOrder(d, number, products, owner, s.now().UTC())

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		for _, i := range lockOrder(d.Items) {
			it := d.Items[i]
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Size, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				available, err := tx.StockAvailable(ctx, it.ProductID, it.Size)
				if err != nil {
					return err
				}
				return &InsufficientStockError{
					Index:     i,
					ProductID: it.ProductID,
					Name:      it.Name,
					Size:      it.Size,
					Requested: it.Quantity,
					Available: available,
				}
			}
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		if owner != nil {
			if err := tx.AddUserOrder(ctx, owner.ID, order.Total); err != nil {
				return err
			}
			if err := tx.ClearCart(ctx, owner.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockOrder returns item indexes sorted by product and size, so concurrent
// checkouts lock stock rows in the same order.
func lockOrder(items []DraftItem) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, y := items[idx[a]], items[idx[b]]
		if x.ProductID != y.ProductID {
			return x.ProductID < y.ProductID
		}
		return x.Size < y.Size
	})
	return idx
}

func buildOrder(d *OrderDraft, number string, products map[string]models.Product, owner *models.User, now time.Time) *models.Order {
	o := &models.Order{
		OrderNumber:     number,
		CustomerInfo:    d.CustomerInfo,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		Subtotal:        d.Subtotal,
		Shipping:        d.Shipping,
		Tax:             d.Tax,
		Discount:        d.Discount,
		Total:           d.Total,
		Status:          models.OrderStatusPending,
		Notes:           d.Notes,
		StatusHistory: []models.OrderStatusEntry{
			{Status: models.OrderStatusPending, Note: "Order created", Timestamp: now},
		},
	}
	if owner != nil {
		id := owner.ID
		o.UserID = &id
	}

	for i, it := range d.Items {
		image := it.Image
		if image == "" {
			p := products[it.ProductID]
			image = p.PrimaryImage()
		}
		o.Items = append(o.Items, models.OrderItem{
			Position:  i,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
			Image:     image,
		})
	}
	return o
}

func orderEvent(typ string, o *models.Order) events.OrderEvent {
	ev := events.OrderEvent{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Email:       o.CustomerInfo.Email,
		Status:      string(o.Status),
		Total:       o.Total,
		Items:       o.TotalItems(),
		At:          time.Now().UTC(),
	}
	if o.UserID != nil {
		ev.UserID = *o.UserID
	}
	return ev
}

func (s *OrderService) afterCreate(ctx context.Context, o *models.Order) {
	s.invalidateStats(ctx)

	ev := orderEvent(events.TypeOrderCreated, o)
	s.background(ctx, "order_created_side_effects", func(ctx context.Context) error {
		var errs []error
		if s.Events != nil {
			if err := s.Events.PublishEvent(ctx, o.OrderNumber, ev); err != nil {
				errs = append(errs, fmt.Errorf("publish: %w", err))
			}
		}
		if s.Index != nil {
			if err := s.Index.IndexOrder(ctx, o); err != nil {
				errs = append(errs, fmt.Errorf("index: %w", err))
			}
		}
		if s.Mailer != nil {
			if err := s.Mailer.SendOrderConfirmation(ctx, o); err != nil {
				errs = append(errs, fmt.Errorf("confirmation email: %w", err))
			}
		}
		return errors.Join(errs...)
	})
}

func (s *OrderService) invalidateStats(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, statsCacheKey); err != nil {
		logging.FromContext(ctx).Warn("stats_cache_invalidate_failed", "error", err)
	}
}

// GetOrderForCustomer lets a guest look up an order by number and the email
// it was placed with.
func (s *OrderService) GetOrderForCustomer(ctx context.Context, number, email string) (*models.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "email is required", nil)
	}

	o, err := s.Repo.GetOrderByNumber(ctx, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
	}
	if err != nil {
		return nil, persistence("load order", err)
	}
	if !strings.EqualFold(o.CustomerInfo.Email, email) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
	}
	return o, nil
}

func (s *OrderService) MyOrders(ctx context.Context, userID string, page, limit int) (*OrderPage, error) {
	offset, limit := util.Calculate(page, limit)
	total, orders, err := s.Repo.ListOrders(ctx, repo.OrderFilter{UserID: userID, Offset: offset, Limit: limit})
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return &OrderPage{Orders: orders, Pagination: util.NewPagination(page, limit, total)}, nil
}
