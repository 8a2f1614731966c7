package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	orders *service.OrderService
	events *events.Memory
}

type apiResponse struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(dbtest.New(t))
	mem := cache.NewMemory()
	evs := &events.Memory{}
	orders := &service.OrderService{Repo: r, Events: evs, Cache: mem}
	t.Cleanup(orders.Wait)

	gate := auth.NewGate(testSecret, mem)
	gate.Accounts = r

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(loggingmw.RequestLogger(logging.Discard()))

	Register(e, &Deps{
		Orders:  &OrderHTTP{Svc: orders},
		Admin:   &AdminHTTP{Orders: orders, Users: &service.UserService{Repo: r}},
		Auth:    &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testSecret, TokenTTL: time.Hour, Revoker: mem}},
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Cart:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		Gate:    gate,
	})

	return &testEnv{e: e, repo: r, orders: orders, events: evs}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Header().Get(echo.HeaderContentType) == echo.MIMEApplicationJSON || bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func (env *testEnv) product(t *testing.T, price float64, stock map[string]int) *models.Product {
	t.Helper()

	p := &models.Product{Name: "Shirt", Price: price, Category: "shirts", IsActive: true}
	for size, n := range stock {
		p.Stock = append(p.Stock, models.ProductStock{Size: size, Available: n})
	}
	require.NoError(t, env.repo.CreateProduct(context.Background(), p))
	return p
}

func (env *testEnv) token(t *testing.T, email, role string) (string, *models.User) {
	t.Helper()

	pw, err := hash.HashPassword("Secret123")
	require.NoError(t, err)
	u := &models.User{Name: "Test", Email: email, PasswordHash: pw, Role: role, IsActive: true}
	require.NoError(t, env.repo.CreateUser(context.Background(), u))

	issued, err := tokens.Issue(u.ID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return issued.Token, u
}

func orderPayload(productID string, stockSize string) map[string]any {
	return map[string]any{
		"customerInfo": map[string]any{"name": "Dana Reyes", "email": "dana@example.com", "phone": "555-0101"},
		"items": []map[string]any{
			{"product": productID, "name": "Shirt", "price": 100, "quantity": 2, "size": stockSize, "color": "Blue"},
		},
		"shippingAddress": map[string]any{
			"fullName": "Dana Reyes", "address": "12 Harbor St", "city": "Portland",
			"state": "OR", "zipCode": "97201", "phone": "555-0101",
		},
		"paymentMethod": "cod",
		"subtotal":      200,
		"shipping":      0,
		"tax":           0,
		"discount":      0,
		"total":         200,
	}
}

type orderData struct {
	Order struct {
		ID            string `json:"id"`
		OrderNumber   string `json:"orderNumber"`
		UserID        string `json:"userId"`
		Status        string `json:"status"`
		PaymentMethod string `json:"paymentMethod"`
		StatusHistory []struct {
			Status string `json:"status"`
			Note   string `json:"note"`
		} `json:"statusHistory"`
	} `json:"order"`
}

func TestCreateOrder_Guest(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, 100, map[string]int{"M": 5})

	rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", orderPayload(p.ID, "M"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)

	var data orderData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "COD", data.Order.PaymentMethod)
	assert.Equal(t, "pending", data.Order.Status)
	assert.Empty(t, data.Order.UserID)
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, data.Order.OrderNumber)
}

func TestCreateOrder_LinksAuthenticatedUser(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, 100, map[string]int{"M": 5})
	tok, u := env.token(t, "dana@example.com", models.RoleUser)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", orderPayload(p.ID, "M"), tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data orderData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, u.ID, data.Order.UserID)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/orders/mine", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Orders []struct {
			OrderNumber string `json:"orderNumber"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, data.Order.OrderNumber, mine.Orders[0].OrderNumber)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/orders/"+data.Order.OrderNumber+"?email=dana@example.com", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrder_Rejections(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, 100, map[string]int{"M": 5, "S": 0})

	t.Run("non hex product", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", orderPayload("jeans", "M"), "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
		require.NotEmpty(t, resp.Errors)
		assert.Equal(t, "items[0].product", resp.Errors[0].Field)
	})

	t.Run("no items", func(t *testing.T) {
		payload := orderPayload(p.ID, "M")
		payload["items"] = []any{}
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", payload, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "items array required, at least 1 item", resp.Errors[0].Message)
	})

	t.Run("out of stock", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", orderPayload(p.ID, "S"), "")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "items[0].quantity", resp.Errors[0].Field)

		total, _, err := env.repo.ListOrders(context.Background(), repo.OrderFilter{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("wrong field types", func(t *testing.T) {
		payload := orderPayload(p.ID, "M")
		payload["customerInfo"] = map[string]any{"name": "", "email": 42}
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", payload, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, "Validation failed", resp.Message)

		fields := make([]string, 0, len(resp.Errors))
		for _, fe := range resp.Errors {
			fields = append(fields, fe.Field)
		}
		assert.Equal(t, []string{"customerInfo.email", "customerInfo.name"}, fields)
		assert.EqualValues(t, 42, resp.Errors[0].Value)
	})

	t.Run("items not an array", func(t *testing.T) {
		payload := orderPayload(p.ID, "M")
		payload["items"] = "x"
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", payload, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotEmpty(t, resp.Errors)
		assert.Equal(t, "items", resp.Errors[0].Field)
		assert.Equal(t, "items must be an array", resp.Errors[0].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", `{"items":`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid body", resp.Message)
	})
}

func TestAdminRoutes_Gate(t *testing.T) {
	env := newTestEnv(t)
	userTok, _ := env.token(t, "user@example.com", models.RoleUser)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/admin/orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders/stats", nil, userTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_StatusUpdateAndViews(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, 100, map[string]int{"M": 5})
	adminTok, _ := env.token(t, "admin@example.com", models.RoleAdmin)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/orders", orderPayload(p.ID, "M"), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created orderData
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	rec, resp = env.do(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID+"/status",
		map[string]any{"status": "processing", "note": "shipped today"}, adminTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated orderData
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "processing", updated.Order.Status)
	require.Len(t, updated.Order.StatusHistory, 2)
	assert.Equal(t, "shipped today", updated.Order.StatusHistory[1].Note)

	rec, resp = env.do(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID+"/status",
		map[string]any{"status": "teleported"}, adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "status", resp.Errors[0].Field)

	rec, _ = env.do(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID+"/status",
		map[string]any{"status": "pending"}, adminTok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/admin/orders?page=1&limit=5", nil, adminTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Orders []struct {
			OrderNumber string `json:"orderNumber"`
			TotalItems  int    `json:"totalItems"`
			Customer    struct {
				Type string `json:"type"`
			} `json:"customer"`
		} `json:"orders"`
		Pagination map[string]any `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 2, list.Orders[0].TotalItems)
	assert.Equal(t, "guest", list.Orders[0].Customer.Type)
	assert.EqualValues(t, 1, list.Pagination["totalOrders"])
	assert.EqualValues(t, 1, list.Pagination["currentPage"])

	rec, resp = env.do(t, http.MethodGet, "/api/v1/admin/orders/stats", nil, adminTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.OrderStats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.StatusBreakdown["processing"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders/export", nil, adminTok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.NotZero(t, rec.Body.Len())
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "Kim", "email": "kim@example.com", "password": "Secret123"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = env.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "Kim", "email": "kim@example.com", "password": "Secret123"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "kim@example.com", "password": "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "kim@example.com", "password": "Secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), tokens.CookieName+"=")

	var login struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	assert.Equal(t, models.RoleUser, login.User.Role)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, login.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_DisabledAdminLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	ownerTok, _ := env.token(t, "owner@example.com", models.RoleAdmin)
	staffTok, staff := env.token(t, "staff@example.com", models.RoleAdmin)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/admin/orders", nil, staffTok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPatch, "/api/v1/admin/users/"+staff.ID+"/status", map[string]any{"isActive": false}, ownerTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders", nil, staffTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCartAndCatalogRoutes(t *testing.T) {
	env := newTestEnv(t)
	adminTok, _ := env.token(t, "admin@example.com", models.RoleAdmin)
	userTok, _ := env.token(t, "user@example.com", models.RoleUser)

	rec, resp := env.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name": "Tee", "price": 12.5, "category": "tops", "stockBySize": map[string]int{"M": 3},
	}, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Product struct {
			ID          string         `json:"id"`
			StockBySize map[string]int `json:"stockBySize"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, map[string]int{"M": 3}, created.Product.StockBySize)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/products/"+created.Product.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product": created.Product.ID, "size": "M", "color": "Black"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product": created.Product.ID, "size": "M", "color": "Black", "quantity": 2}, userTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cart service.CartView
	require.NoError(t, json.Unmarshal(resp.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.TotalItems)

	rec, _ = env.do(t, http.MethodPatch, "/api/v1/cart/abc", map[string]any{"quantity": 1}, userTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/admin/products/"+created.Product.ID+"/deactivate", nil, adminTok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/products/"+created.Product.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
