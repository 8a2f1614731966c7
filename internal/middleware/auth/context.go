package auth

import "github.com/labstack/echo/v4"

func setUserContext(c echo.Context, s *Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", s.UserID)
	c.Set("role", s.Role)
}

// SessionFrom returns the session attached by the gate, or nil for guests.
func SessionFrom(c echo.Context) *Session {
	s, _ := c.Get(sessionKey).(*Session)
	return s
}

// UserIDFrom returns nil for guests.
func UserIDFrom(c echo.Context) *string {
	s := SessionFrom(c)
	if s == nil || s.UserID == "" {
		return nil
	}
	id := s.UserID
	return &id
}
