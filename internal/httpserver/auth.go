package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_error", err)
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.CookieName, res.Token, "/", res.ExpiresAt))
	l.Info("register_success", "user_id", res.User.ID)
	return respond(c, http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.CookieName, res.Token, "/", res.ExpiresAt))
	l.Info("login_success", "user_id", res.User.ID)
	return respond(c, http.StatusOK, res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	s := auth.SessionFrom(c)
	if err := h.Svc.Logout(ctx, s.TokenID, s.ExpiresAt); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log out")
	}

	c.SetCookie(tokens.DeleteCookie(tokens.CookieName, "/"))
	l.Info("logout_success", "user_id", s.UserID)
	return respond(c, http.StatusOK, map[string]any{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	user, err := h.Svc.Me(ctx, auth.SessionFrom(c).UserID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return respond(c, http.StatusOK, map[string]any{"user": user})
}
