package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func cartItemID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "cart item id must be a positive integer")
	}
	return uint(id), nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	cart, err := h.Svc.Get(ctx, auth.SessionFrom(c).UserID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "add_to_cart_error", err)
	}

	cart, err := h.Svc.AddItem(ctx, auth.SessionFrom(c).UserID, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	id, err := cartItemID(c)
	if err != nil {
		return err
	}
	var req transport.CartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_quantity_error", err)
	}

	cart, err := h.Svc.UpdateQuantity(ctx, auth.SessionFrom(c).UserID, id, req.Quantity)
	if err != nil {
		return fail(l, "update_quantity_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete_item")

	id, err := cartItemID(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.RemoveItem(ctx, auth.SessionFrom(c).UserID, id)
	if err != nil {
		return fail(l, "delete_item_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	userID := auth.SessionFrom(c).UserID
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return respond(c, http.StatusOK, cart)
}
