package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]models.OrderStatus
	hits    []string
	err     error
}

func (f *fakeIndex) IndexOrder(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexed == nil {
		f.indexed = map[string]models.OrderStatus{}
	}
	f.indexed[o.ID] = o.Status
	return nil
}

func (f *fakeIndex) SearchOrders(context.Context, string, int, int) (int64, []string, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func (f *fakeIndex) status(id string) models.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexed[id]
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, o.OrderNumber)
	return nil
}

type fixture struct {
	repo   *repo.GormRepo
	orders *OrderService
	events *events.Memory
	cache  *cache.Memory
	index  *fakeIndex
	mailer *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repo.New(dbtest.New(t))
	f := &fixture{
		repo:   r,
		events: &events.Memory{},
		cache:  cache.NewMemory(),
		index:  &fakeIndex{},
		mailer: &fakeMailer{},
	}
	f.orders = &OrderService{
		Repo:   r,
		Events: f.events,
		Index:  f.index,
		Mailer: f.mailer,
		Cache:  f.cache,
		Now:    func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) },
	}
	t.Cleanup(f.orders.Wait)
	return f
}

func (f *fixture) product(t *testing.T, price float64, stock map[string]int) *models.Product {
	t.Helper()

	p := &models.Product{Name: "Oxford shirt", Price: price, Category: "shirts", Section: "men", IsActive: true}
	for size, n := range stock {
		p.Stock = append(p.Stock, models.ProductStock{Size: size, Available: n})
	}
	p.Images = []models.ProductImage{{URL: "/img/oxford.jpg", IsPrimary: true}}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, email, role string) *models.User {
	t.Helper()

	pw, err := hash.HashPassword("Secret123")
	require.NoError(t, err)
	u := &models.User{Name: "Dana", Email: email, PasswordHash: pw, Role: role, IsActive: true}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) stock(t *testing.T, productID, size string) int {
	t.Helper()
	n, err := f.repo.StockAvailable(context.Background(), productID, size)
	require.NoError(t, err)
	return n
}

type line struct {
	product  string
	price    float64
	quantity float64
	size     string
}

func checkout(lines ...line) transport.CheckoutRequest {
	req := transport.CheckoutRequest{
		CustomerInfo: transport.CustomerInfo{Name: "Dana Reyes", Email: "dana@example.com", Phone: "555-0101"},
		ShippingAddress: transport.ShippingAddress{
			FullName: "Dana Reyes",
			Address:  "12 Harbor St",
			City:     "Portland",
			State:    "OR",
			ZipCode:  "97201",
			Phone:    "555-0101",
		},
		PaymentMethod: "cod",
		Shipping:      transport.Num(0),
		Tax:           transport.Num(0),
		Discount:      transport.Num(0),
	}

	subtotal := 0.0
	for _, l := range lines {
		size := l.size
		if size == "" {
			size = "M"
		}
		req.Items = append(req.Items, transport.CheckoutItem{
			Product:  l.product,
			Name:     "Oxford shirt",
			Price:    transport.Num(l.price),
			Quantity: transport.Num(l.quantity),
			Size:     size,
			Color:    "Blue",
		})
		subtotal += l.price * l.quantity
	}
	req.Subtotal = transport.Num(subtotal)
	req.Total = transport.Num(subtotal)
	return req
}
