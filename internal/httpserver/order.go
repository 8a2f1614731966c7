package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// CreateOrder accepts guests; a valid token links the order to the account.
func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_order_error", err)
	}

	order, err := h.Svc.PlaceOrder(ctx, req, auth.UserIDFrom(c))
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_number", order.OrderNumber)
	return respond(c, http.StatusCreated, map[string]any{"order": order})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	order, err := h.Svc.GetOrderForCustomer(ctx, c.Param("orderNumber"), c.QueryParam("email"))
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"order": order})
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	s := auth.SessionFrom(c)
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.MyOrders(ctx, s.UserID, page, limit)
	if err != nil {
		return fail(l, "my_orders_error", err)
	}
	return respond(c, http.StatusOK, res)
}
