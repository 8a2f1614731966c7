package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
)

const (
	CustomerRegistered = "registered"
	CustomerGuest      = "guest"

	statsCacheTTL = 30 * time.Second
)

type CustomerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

type ProductDetails struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

type FirstItem struct {
	Product        string         `json:"product"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	Quantity       int            `json:"quantity"`
	Size           string         `json:"size"`
	Color          string         `json:"color"`
	Image          string         `json:"image"`
	ProductDetails ProductDetails `json:"productDetails"`
}

type ItemsSummary struct {
	Count           int        `json:"count"`
	HasMultiple     bool       `json:"hasMultiple"`
	AdditionalCount int        `json:"additionalCount"`
	FirstItem       *FirstItem `json:"firstItem"`
}

type AdminOrder struct {
	ID              string                    `json:"id"`
	OrderNumber     string                    `json:"orderNumber"`
	Customer        CustomerView              `json:"customer"`
	TotalItems      int                       `json:"totalItems"`
	ItemsSummary    ItemsSummary              `json:"itemsSummary"`
	Items           []models.OrderItem        `json:"items"`
	ShippingAddress models.ShippingAddress    `json:"shippingAddress"`
	Status          models.OrderStatus        `json:"status"`
	StatusHistory   []models.OrderStatusEntry `json:"statusHistory"`
	PaymentMethod   models.PaymentMethod      `json:"paymentMethod"`
	PaymentStatus   models.PaymentStatus      `json:"paymentStatus"`
	Subtotal        float64                   `json:"subtotal"`
	Shipping        float64                   `json:"shipping"`
	Tax             float64                   `json:"tax"`
	Discount        float64                   `json:"discount"`
	Total           float64                   `json:"total"`
	Notes           string                    `json:"notes,omitempty"`
	TrackingNumber  string                    `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

type AdminPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
	Limit       int   `json:"limit"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
}

type AdminOrderPage struct {
	Orders     []AdminOrder    `json:"orders"`
	Pagination AdminPagination `json:"pagination"`
}

type OrderStats struct {
	TotalOrders     int64            `json:"totalOrders"`
	TotalRevenue    float64          `json:"totalRevenue"`
	StatusBreakdown map[string]int64 `json:"statusBreakdown"`
}

func adminPagination(page, limit int, total int64) AdminPagination {
	p := util.NewPagination(page, limit, total)
	return AdminPagination{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		TotalOrders: p.Total,
		Limit:       p.Limit,
		HasPrevPage: p.HasPrevPage,
		HasNextPage: p.HasNextPage,
	}
}

// Enrich joins orders with the catalog and the user table. Products that no
// longer exist fall back to the snapshot stored on the order line.
func (s *OrderService) Enrich(ctx context.Context, orders []models.Order) ([]AdminOrder, error) {
	out := make([]AdminOrder, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	var productIDs, guestEmails []string
	seen := map[string]bool{}
	for _, o := range orders {
		if len(o.Items) > 0 && !seen[o.Items[0].ProductID] {
			seen[o.Items[0].ProductID] = true
			productIDs = append(productIDs, o.Items[0].ProductID)
		}
		if o.UserID == nil && o.CustomerInfo.Email != "" {
			guestEmails = append(guestEmails, o.CustomerInfo.Email)
		}
	}

	products, err := s.Repo.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, persistence("load products", err)
	}
	registered, err := s.Repo.RegisteredEmails(ctx, guestEmails)
	if err != nil {
		return nil, persistence("load users", err)
	}

	for i := range orders {
		out = append(out, enrichOrder(&orders[i], products, registered))
	}
	return out, nil
}

func enrichOrder(o *models.Order, products map[string]models.Product, registered map[string]bool) AdminOrder {
	customerType := CustomerGuest
	if o.UserID != nil || registered[strings.ToLower(o.CustomerInfo.Email)] {
		customerType = CustomerRegistered
	}

	summary := ItemsSummary{Count: len(o.Items)}
	if n := len(o.Items); n > 0 {
		summary.HasMultiple = n > 1
		summary.AdditionalCount = n - 1

		first := o.Items[0]
		details := ProductDetails{Name: first.Name, Image: first.Image}
		if p, ok := products[first.ProductID]; ok {
			details.Name = p.Name
			details.Category = p.Category
			if img := p.PrimaryImage(); img != "" {
				details.Image = img
			}
		}
		summary.FirstItem = &FirstItem{
			Product:        first.ProductID,
			Name:           first.Name,
			Price:          first.Price,
			Quantity:       first.Quantity,
			Size:           first.Size,
			Color:          first.Color,
			Image:          first.Image,
			ProductDetails: details,
		}
	}

	items := o.Items
	if items == nil {
		items = []models.OrderItem{}
	}

	return AdminOrder{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Customer: CustomerView{
			Name:  o.CustomerInfo.Name,
			Email: o.CustomerInfo.Email,
			Phone: o.CustomerInfo.Phone,
			Type:  customerType,
		},
		TotalItems:      o.TotalItems(),
		ItemsSummary:    summary,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		StatusHistory:   o.StatusHistory,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Subtotal:        o.Subtotal,
		Shipping:        o.Shipping,
		Tax:             o.Tax,
		Discount:        o.Discount,
		Total:           o.Total,
		Notes:           o.Notes,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func parseStatusFilter(status string) (models.OrderStatus, error) {
	if strings.TrimSpace(status) == "" {
		return "", nil
	}
	st, ok := ParseStatus(status)
	if !ok {
		return "", invalid("status", "status must be one of: "+allowedStatuses(), status)
	}
	return st, nil
}

func (s *OrderService) ListAdminOrders(ctx context.Context, page, limit int, status string) (*AdminOrderPage, error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	offset, limit := util.Calculate(page, limit)
	total, orders, err := s.Repo.ListOrders(ctx, repo.OrderFilter{Status: st, Offset: offset, Limit: limit})
	if err != nil {
		return nil, persistence("list orders", err)
	}

	enriched, err := s.Enrich(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &AdminOrderPage{Orders: enriched, Pagination: adminPagination(page, limit, total)}, nil
}

func (s *OrderService) GetAdminOrder(ctx context.Context, id string) (*AdminOrder, error) {
	o, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	enriched, err := s.Enrich(ctx, []models.Order{*o})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

func (s *OrderService) loadOrder(ctx context.Context, id string) (*models.Order, error) {
	norm, ok := ids.Normalize(id)
	if !ok {
		return nil, invalid("id", "Invalid order ID format", id)
	}
	o, err := s.Repo.GetOrder(ctx, norm)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, norm)
	}
	if err != nil {
		return nil, persistence("load order", err)
	}
	return o, nil
}

// Stats is served from the cache when one is configured.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	l := logging.FromContext(ctx).With("svc", "order.stats")

	if s.Cache != nil {
		var cached OrderStats
		ok, err := s.Cache.GetJSON(ctx, statsCacheKey, &cached)
		if err != nil {
			l.Warn("stats_cache_read_failed", "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	totals, err := s.Repo.OrderTotals(ctx)
	if err != nil {
		return nil, persistence("order totals", err)
	}

	stats := &OrderStats{
		TotalOrders:     totals.Orders,
		TotalRevenue:    money.Round(totals.Revenue),
		StatusBreakdown: make(map[string]int64, len(orderStatuses)),
	}
	for _, st := range orderStatuses {
		stats.StatusBreakdown[string(st)] = 0
	}
	for _, c := range totals.Counts {
		stats.StatusBreakdown[string(c.Status)] = c.Count
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
			l.Warn("stats_cache_write_failed", "error", err)
		}
	}
	return stats, nil
}

// SearchOrders asks the search index first and falls back to a database
// match when the index is missing or failing.
func (s *OrderService) SearchOrders(ctx context.Context, query string, page, limit int) (*AdminOrderPage, error) {
	l := logging.FromContext(ctx).With("svc", "order.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q", "search query is required", nil)
	}
	offset, limit := util.Calculate(page, limit)

	var (
		total  int64
		orders []models.Order
		done   bool
	)
	if s.Index != nil {
		n, found, err := s.Index.SearchOrders(ctx, query, offset, limit)
		if err != nil {
			l.Warn("order_index_search_failed", "error", err)
		} else {
			orders, err = s.Repo.OrdersByIDs(ctx, found)
			if err != nil {
				return nil, persistence("load orders", err)
			}
			total, done = n, true
		}
	}
	if !done {
		var err error
		total, orders, err = s.Repo.SearchOrders(ctx, query, offset, limit)
		if err != nil {
			return nil, persistence("search orders", err)
		}
	}

	enriched, err := s.Enrich(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &AdminOrderPage{Orders: enriched, Pagination: adminPagination(page, limit, total)}, nil
}

// ExportOrders builds a workbook of every order, optionally filtered by
// status.
func (s *OrderService) ExportOrders(ctx context.Context, status string) (*export.OrdersWorkbook, error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	wb, err := export.NewOrdersWorkbook()
	if err != nil {
		return nil, fmt.Errorf("new workbook: %w", err)
	}
	if err := s.Repo.AllOrders(ctx, st, wb.Add); err != nil {
		return nil, persistence("export orders", err)
	}
	return wb, nil
}
