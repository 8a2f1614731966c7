package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) list(c echo.Context, handler string, includeInactive bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	page, limit := pageParams(c)
	res, err := h.Svc.List(ctx, page, limit, c.QueryParam("category"), c.QueryParam("section"), includeInactive)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return respond(c, http.StatusOK, res)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	return h.list(c, "product.get_products", false)
}

func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	return h.list(c, "admin.get_products", true)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	product, err := h.Svc.Get(ctx, c.Param("id"), false)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return respond(c, http.StatusOK, map[string]any{"product": product})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "product_create_error", err)
	}

	product, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	return respond(c, http.StatusCreated, map[string]any{"product": product})
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_product")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "product_patch_error", err)
	}

	product, err := h.Svc.Patch(ctx, c.Param("id"), req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"product": product})
}

func (h *CatalogHTTP) DeactivateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.deactivate_product")

	if err := h.Svc.Deactivate(ctx, c.Param("id")); err != nil {
		return fail(l, "product_deactivate_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"message": "product deactivated"})
}
