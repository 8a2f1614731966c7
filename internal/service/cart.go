package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

type CartView struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	Subtotal   float64           `json:"subtotal"`
}

func (s *CartService) Get(ctx context.Context, userID string) (*CartView, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, persistence("load cart", err)
	}

	view := &CartView{Items: items}
	if view.Items == nil {
		view.Items = []models.CartItem{}
	}
	lines := make([]float64, 0, len(items))
	for _, it := range items {
		view.TotalItems += it.Quantity
		lines = append(lines, money.Line(it.Price, it.Quantity))
	}
	view.Subtotal = money.Sum(lines...)
	return view, nil
}

// AddItem snapshots name, price and image from the catalog and merges into an
// existing line with the same product, size and color.
func (s *CartService) AddItem(ctx context.Context, userID string, req transport.AddCartItemRequest) (*CartView, error) {
	ve := &ValidationError{}

	rawID := req.Product
	if strings.TrimSpace(rawID) == "" {
		rawID = req.ProductID
	}
	productID, ok := ids.Normalize(rawID)
	if !ok {
		ve.Add("product", "Invalid product ID format", rawID)
	}
	size := required(ve, "size", "Size", req.Size)
	color := required(ve, "color", "Color", req.Color)
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		ve.Add("quantity", "quantity must be >= 1", req.Quantity)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	p, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if err != nil {
		return nil, persistence("load product", err)
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if _, ok := p.StockBySize()[size]; !ok {
		return nil, invalid("size", "size is not offered for this product", size)
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: p.ID,
		Size:      size,
		Color:     color,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Image:     p.PrimaryImage(),
	}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return nil, persistence("add to cart", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID uint, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, invalid("quantity", "quantity must be >= 1", qty)
	}
	_, err := s.Repo.SetCartQuantity(ctx, userID, itemID, qty)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, persistence("update cart", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID uint) (*CartView, error) {
	err := s.Repo.DeleteCartItem(ctx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, persistence("remove cart item", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return persistence("clear cart", err)
	}
	return nil
}
