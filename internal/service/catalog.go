package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogService struct {
	Repo *repo.GormRepo
}

type ProductView struct {
	models.Product
	StockBySize map[string]int `json:"stockBySize"`
}

type ProductPage struct {
	Products   []ProductView   `json:"products"`
	Pagination util.Pagination `json:"pagination"`
}

func viewOf(p *models.Product) ProductView {
	if p.Images == nil {
		p.Images = []models.ProductImage{}
	}
	return ProductView{Product: *p, StockBySize: p.StockBySize()}
}

func (s *CatalogService) List(ctx context.Context, page, limit int, category, section string, includeInactive bool) (*ProductPage, error) {
	offset, limit := util.Calculate(page, limit)
	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{
		Category:   strings.TrimSpace(category),
		Section:    strings.TrimSpace(section),
		ActiveOnly: !includeInactive,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, persistence("list products", err)
	}

	views := make([]ProductView, 0, len(items))
	for i := range items {
		views = append(views, viewOf(&items[i]))
	}
	return &ProductPage{Products: views, Pagination: util.NewPagination(page, limit, total)}, nil
}

// Get hides inactive products unless includeInactive is set.
func (s *CatalogService) Get(ctx context.Context, id string, includeInactive bool) (*ProductView, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !includeInactive {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, p.ID)
	}
	v := viewOf(p)
	return &v, nil
}

func (s *CatalogService) load(ctx context.Context, id string) (*models.Product, error) {
	norm, ok := ids.Normalize(id)
	if !ok {
		return nil, invalid("id", "Invalid product ID format", id)
	}
	p, err := s.Repo.GetProduct(ctx, norm)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, norm)
	}
	if err != nil {
		return nil, persistence("load product", err)
	}
	return p, nil
}

func checkStock(ve *ValidationError, stock map[string]int) {
	for size, n := range stock {
		if strings.TrimSpace(size) == "" {
			ve.Add("stockBySize", "size must not be empty", nil)
		}
		if n < 0 {
			ve.Add("stockBySize."+size, "stock must be >= 0", n)
		}
	}
}

// buildImages keeps at most one primary image and promotes the first one when
// none is flagged.
func buildImages(ve *ValidationError, in []transport.ImageRequest) []models.ProductImage {
	out := make([]models.ProductImage, 0, len(in))
	primary := false
	for i, img := range in {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			ve.Add(fmt.Sprintf("images[%d].url", i), "image url is required", nil)
			continue
		}
		isPrimary := img.IsPrimary && !primary
		primary = primary || isPrimary
		out = append(out, models.ProductImage{URL: url, IsPrimary: isPrimary})
	}
	if !primary && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*ProductView, error) {
	ve := &ValidationError{}
	name := required(ve, "name", "Name", req.Name)
	category := required(ve, "category", "Category", req.Category)
	switch {
	case req.Price == nil:
		ve.Add("price", "price is required", nil)
	case *req.Price < 0:
		ve.Add("price", "price must be >= 0", *req.Price)
	}
	if req.OriginalPrice != nil && *req.OriginalPrice < 0 {
		ve.Add("originalPrice", "originalPrice must be >= 0", *req.OriginalPrice)
	}
	checkStock(ve, req.StockBySize)
	images := buildImages(ve, req.Images)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		Price:         *req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      category,
		Section:       strings.TrimSpace(req.Section),
		IsActive:      true,
		Images:        images,
	}
	for size, n := range req.StockBySize {
		p.Stock = append(p.Stock, models.ProductStock{Size: strings.TrimSpace(size), Available: n})
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, persistence("create product", err)
	}
	logging.FromContext(ctx).Info("product_created", "product_id", p.ID)

	return s.Get(ctx, p.ID, true)
}

// Patch updates the provided fields. A provided stockBySize or images list
// replaces the stored one.
func (s *CatalogService) Patch(ctx context.Context, id string, req transport.PatchProductRequest) (*ProductView, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = required(ve, "name", "Name", *req.Name)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			ve.Add("price", "price must be >= 0", *req.Price)
		}
		fields["price"] = *req.Price
	}
	if req.OriginalPrice != nil {
		if *req.OriginalPrice < 0 {
			ve.Add("originalPrice", "originalPrice must be >= 0", *req.OriginalPrice)
		}
		fields["original_price"] = *req.OriginalPrice
	}
	if req.Category != nil {
		fields["category"] = required(ve, "category", "Category", *req.Category)
	}
	if req.Section != nil {
		fields["section"] = strings.TrimSpace(*req.Section)
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var stock map[string]int
	if req.StockBySize != nil {
		checkStock(ve, req.StockBySize)
		stock = make(map[string]int, len(req.StockBySize))
		for size, n := range req.StockBySize {
			stock[strings.TrimSpace(size)] = n
		}
	}
	var images []models.ProductImage
	if req.Images != nil {
		images = buildImages(ve, *req.Images)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		return tx.UpdateProduct(ctx, p.ID, fields, stock, images)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, p.ID)
	}
	if err != nil {
		return nil, persistence("update product", err)
	}

	return s.Get(ctx, p.ID, true)
}

func (s *CatalogService) Deactivate(ctx context.Context, id string) error {
	norm, ok := ids.Normalize(id)
	if !ok {
		return invalid("id", "Invalid product ID format", id)
	}
	err := s.Repo.DeactivateProduct(ctx, norm)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, norm)
	}
	if err != nil {
		return persistence("deactivate product", err)
	}
	logging.FromContext(ctx).Info("product_deactivated", "product_id", norm)
	return nil
}
