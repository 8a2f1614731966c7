package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SessionCookie: "accessToken"}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/cart", ok)
	e.POST("/cart", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	e := newServer()

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token, cookies[0].Value)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{
			name:   "no session cookie",
			setup:  func(r *http.Request) {},
			status: http.StatusNoContent,
		},
		{
			name: "bearer token",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer abc")
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
			},
			status: http.StatusNoContent,
		},
		{
			name: "cookie session without header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
			},
			status: http.StatusForbidden,
		},
		{
			name: "cookie session with wrong header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
				r.Header.Set("X-CSRF-Token", "forged")
			},
			status: http.StatusForbidden,
		},
		{
			name: "cookie session with matching header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
				r.Header.Set("X-CSRF-Token", token)
			},
			status: http.StatusNoContent,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart", nil)
			tc.setup(req)
			assert.Equal(t, tc.status, serve(e, req).Code)
		})
	}
}
