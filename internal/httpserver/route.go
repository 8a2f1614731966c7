package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Orders  *OrderHTTP
	Admin   *AdminHTTP
	Auth    *AuthHTTP
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Gate    *auth.Gate
	// Ready reports whether the backing store answers; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/logout", d.Auth.Logout, d.Gate.RequireAuth)
	authGroup.GET("/me", d.Auth.Me, d.Gate.RequireAuth)

	orders := v1.Group("/orders")
	orders.POST("", d.Orders.CreateOrder, d.Gate.Optional)
	orders.GET("/mine", d.Orders.MyOrders, d.Gate.RequireAuth)
	orders.GET("/:orderNumber", d.Orders.GetOrder)

	products := v1.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/:id", d.Catalog.GetProduct)

	cart := v1.Group("/cart", d.Gate.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.PATCH("/:id", d.Cart.UpdateQuantity)
	cart.DELETE("/:id", d.Cart.DeleteItem)

	admin := v1.Group("/admin", d.Gate.RequireAdmin)

	admin.GET("/orders", d.Admin.ListOrders)
	admin.GET("/orders/stats", d.Admin.Stats)
	admin.GET("/orders/search", d.Admin.SearchOrders)
	admin.GET("/orders/export", d.Admin.ExportOrders)
	admin.GET("/orders/:id", d.Admin.GetOrder)
	admin.PUT("/orders/:id/status", d.Admin.UpdateStatus)

	admin.GET("/products", d.Catalog.AdminProducts)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.POST("/products/:id/deactivate", d.Catalog.DeactivateProduct)

	admin.GET("/users", d.Admin.ListUsers)
	admin.PATCH("/users/:id/status", d.Admin.SetUserStatus)
}
