package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type AdminHTTP struct {
	Orders *service.OrderService
	Users  *service.UserService
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page, limit := pageParams(c)
	res, err := h.Orders.ListAdminOrders(ctx, page, limit, c.QueryParam("status"))
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return respond(c, http.StatusOK, res)
}

func (h *AdminHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	order, err := h.Orders.GetAdminOrder(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"order": order})
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_stats")

	stats, err := h.Orders.Stats(ctx)
	if err != nil {
		return fail(l, "order_stats_error", err)
	}
	return respond(c, http.StatusOK, stats)
}

func (h *AdminHTTP) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.search_orders")

	page, limit := pageParams(c)
	res, err := h.Orders.SearchOrders(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return fail(l, "search_orders_error", err)
	}
	return respond(c, http.StatusOK, res)
}

func (h *AdminHTTP) ExportOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.export_orders")

	wb, err := h.Orders.ExportOrders(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "export_orders_error", err)
	}

	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, export.ContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().WriteHeader(http.StatusOK)
	if err := wb.Write(c.Response()); err != nil {
		l.Error("export_orders_error", "status", 500, "reason", "write workbook", "error", err)
		return nil
	}

	l.Info("export_orders_success", "rows", wb.Rows())
	return nil
}

func (h *AdminHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	var req transport.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_status_error", err)
	}

	order, err := h.Orders.UpdateStatus(ctx, c.Param("id"), req)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_number", order.OrderNumber, "status", order.Status)
	return respond(c, http.StatusOK, map[string]any{"order": order})
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	page, limit := pageParams(c)
	res, err := h.Users.List(ctx, page, limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return respond(c, http.StatusOK, res)
}

func (h *AdminHTTP) SetUserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_user_status")

	var req transport.UserStatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "set_user_status_error", err)
	}

	user, err := h.Users.SetActive(ctx, auth.SessionFrom(c).UserID, c.Param("id"), req.IsActive)
	if err != nil {
		return fail(l, "set_user_status_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"user": user})
}
