package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func TestListAdminOrders_Enrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 20, map[string]int{"M": 10, "L": 10})
	f.user(t, "member@example.com", models.RoleUser)

	member := checkout(
		line{product: p.ID, price: 20, quantity: 2, size: "M"},
		line{product: p.ID, price: 20, quantity: 1, size: "L"},
	)
	member.CustomerInfo.Email = "Member@example.com"
	_, err := f.orders.PlaceOrder(ctx, member, nil)
	require.NoError(t, err)

	guest, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 20, quantity: 1}), nil)
	require.NoError(t, err)

	page, err := f.orders.ListAdminOrders(ctx, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)

	byEmail := map[string]AdminOrder{}
	for _, o := range page.Orders {
		byEmail[o.Customer.Email] = o
	}

	m := byEmail["member@example.com"]
	assert.Equal(t, CustomerRegistered, m.Customer.Type)
	assert.Equal(t, 3, m.TotalItems)
	assert.Equal(t, 2, m.ItemsSummary.Count)
	assert.True(t, m.ItemsSummary.HasMultiple)
	assert.Equal(t, 1, m.ItemsSummary.AdditionalCount)
	require.NotNil(t, m.ItemsSummary.FirstItem)
	assert.Equal(t, "shirts", m.ItemsSummary.FirstItem.ProductDetails.Category)

	g := byEmail["dana@example.com"]
	assert.Equal(t, CustomerGuest, g.Customer.Type)
	assert.Equal(t, guest.OrderNumber, g.OrderNumber)
	assert.False(t, g.ItemsSummary.HasMultiple)

	assert.Equal(t, AdminPagination{CurrentPage: 1, TotalPages: 1, TotalOrders: 2, Limit: 10}, page.Pagination)
}

func TestListAdminOrders_FirstItemMatchesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 7.25, map[string]int{"M": 10})

	_, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 7.25, quantity: 3}), nil)
	require.NoError(t, err)

	page, err := f.orders.ListAdminOrders(ctx, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)

	o := page.Orders[0]
	first := o.ItemsSummary.FirstItem
	require.NotNil(t, first)
	assert.Equal(t, o.Items[0].Name, first.Name)
	assert.Equal(t, o.Items[0].Price, first.Price)
	assert.Equal(t, o.Items[0].Quantity, first.Quantity)
}

func TestListAdminOrders_MissingProductFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := &models.Order{
		OrderNumber:   "ORD-20250101-000001",
		CustomerInfo:  models.CustomerInfo{Name: "Lee", Email: "lee@example.com"},
		PaymentMethod: models.PaymentCard,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
		Subtotal:      15,
		Total:         15,
		Items: []models.OrderItem{{
			ProductID: ids.New(), Name: "Retired tee", Price: 15, Quantity: 1, Size: "S", Color: "Red", Image: "/old.jpg",
		}},
	}
	require.NoError(t, f.repo.CreateOrder(ctx, o))

	got, err := f.orders.GetAdminOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ItemsSummary.FirstItem)
	assert.Equal(t, ProductDetails{Name: "Retired tee", Image: "/old.jpg"}, got.ItemsSummary.FirstItem.ProductDetails)
}

func TestListAdminOrders_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 5, map[string]int{"M": 50})

	for i := 0; i < 3; i++ {
		_, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 5, quantity: 1}), nil)
		require.NoError(t, err)
	}

	page, err := f.orders.ListAdminOrders(ctx, 2, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, AdminPagination{CurrentPage: 2, TotalPages: 2, TotalOrders: 3, Limit: 2, HasPrevPage: true}, page.Pagination)

	_, err = f.orders.ListAdminOrders(ctx, 1, 10, "lost")
	assert.ErrorIs(t, err, ErrValidation)

	page, err = f.orders.ListAdminOrders(ctx, 1, 10, "shipped")
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.NotNil(t, page.Orders)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10, map[string]int{"M": 50})

	a, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 10, quantity: 2}), nil)
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 10, quantity: 3}), nil)
	require.NoError(t, err)

	stats, err := f.orders.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.InDelta(t, 50.0, stats.TotalRevenue, 0.001)
	assert.Equal(t, map[string]int64{
		"pending": 2, "processing": 0, "shipped": 0, "delivered": 0, "cancelled": 0,
	}, stats.StatusBreakdown)

	var cached OrderStats
	ok, err := f.cache.GetJSON(ctx, statsCacheKey, &cached)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.orders.UpdateStatus(ctx, a.ID, transport.StatusUpdateRequest{Status: "cancelled"})
	require.NoError(t, err)

	stats, err = f.orders.Stats(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, stats.TotalRevenue, 0.001)
	assert.EqualValues(t, 1, stats.StatusBreakdown["cancelled"])
}

func TestSearchOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10, map[string]int{"M": 50})

	a, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 10, quantity: 1}), nil)
	require.NoError(t, err)
	other := checkout(line{product: p.ID, price: 10, quantity: 1})
	other.CustomerInfo = transport.CustomerInfo{Name: "Sam Ortiz", Email: "sam@example.com"}
	b, err := f.orders.PlaceOrder(ctx, other, nil)
	require.NoError(t, err)
	f.orders.Wait()

	t.Run("index", func(t *testing.T) {
		f.index.hits = []string{b.ID, ids.New(), a.ID}
		defer func() { f.index.hits = nil }()

		page, err := f.orders.SearchOrders(ctx, "anything", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Orders, 2)
		assert.Equal(t, b.ID, page.Orders[0].ID)
		assert.Equal(t, a.ID, page.Orders[1].ID)
	})

	t.Run("database fallback", func(t *testing.T) {
		f.index.err = errors.New("cluster down")
		defer func() { f.index.err = nil }()

		page, err := f.orders.SearchOrders(ctx, "ORTIZ", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Orders, 1)
		assert.Equal(t, b.OrderNumber, page.Orders[0].OrderNumber)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := f.orders.SearchOrders(ctx, "  ", 1, 10)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestExportOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10, map[string]int{"M": 50})

	for i := 0; i < 3; i++ {
		_, err := f.orders.PlaceOrder(ctx, checkout(line{product: p.ID, price: 10, quantity: 1}), nil)
		require.NoError(t, err)
	}

	wb, err := f.orders.ExportOrders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, wb.Rows())

	wb, err = f.orders.ExportOrders(ctx, "delivered")
	require.NoError(t, err)
	assert.Zero(t, wb.Rows())
}
