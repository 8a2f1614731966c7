package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const sessionKey = "session"

var errNoToken = errors.New("missing access token")

type Session struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Revocations reports token ids invalidated by logout.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Accounts reports whether a user account may still act.
type Accounts interface {
	UserActive(ctx context.Context, userID string) (bool, error)
}

type Gate struct {
	JWTSecret []byte
	Revoked   Revocations
	// Accounts, when set, is consulted on admin routes so a disabled admin
	// loses access before their token expires.
	Accounts Accounts
}

func NewGate(secret []byte, revoked Revocations) *Gate {
	return &Gate{JWTSecret: secret, Revoked: revoked}
}

type ValidatorFunc func(c echo.Context, s *Session) error

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireWithValidator(next, nil)
}

func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireWithValidator(next, func(c echo.Context, s *Session) error {
		if s.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return g.checkActive(c, s)
	})
}

func (g *Gate) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return g.requireWithValidator(next, func(_ echo.Context, s *Session) error {
			if s.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, role+" access required")
			}
			return nil
		})
	}
}

func (g *Gate) checkActive(c echo.Context, s *Session) error {
	if g.Accounts == nil {
		return nil
	}
	active, err := g.Accounts.UserActive(c.Request().Context(), s.UserID)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("account_lookup_error", "user_id", s.UserID, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}
	if !active {
		return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
	}
	return nil
}

// Optional attaches the session when a valid token is present and otherwise
// lets the request through as a guest.
func (g *Gate) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := g.resolve(c)
		if err == nil {
			setUserContext(c, s)
		} else if !errors.Is(err, errNoToken) {
			logging.FromContext(c.Request().Context()).Debug("optional_auth_ignored", "error", err)
		}
		return next(c)
	}
}

func (g *Gate) requireWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := g.resolve(c)
		if err != nil {
			if errors.Is(err, errNoToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if validator != nil {
			if vErr := validator(c, s); vErr != nil {
				return vErr
			}
		}

		setUserContext(c, s)
		return next(c)
	}
}

func (g *Gate) resolve(c echo.Context) (*Session, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil, errNoToken
	}

	claims, err := tokens.AccessClaimsFromToken(raw, g.JWTSecret)
	if err != nil {
		return nil, err
	}

	if g.Revoked != nil && claims.ID != "" {
		revoked, err := g.Revoked.IsRevoked(c.Request().Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errors.New("token revoked")
		}
	}

	s := &Session{UserID: claims.Subject, Role: claims.Role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := c.Cookie(tokens.CookieName); err == nil {
		return ck.Value
	}
	return ""
}
