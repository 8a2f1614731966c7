package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
)

type UserService struct {
	Repo *repo.GormRepo
}

type UserPage struct {
	Users      []models.User   `json:"users"`
	Pagination util.Pagination `json:"pagination"`
}

func (s *UserService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	offset, limit := util.Calculate(page, limit)
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, persistence("list users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{Users: users, Pagination: util.NewPagination(page, limit, total)}, nil
}

// SetActive enables or disables an account. Admins cannot disable themselves.
func (s *UserService) SetActive(ctx context.Context, actorID, id string, active *bool) (*models.User, error) {
	norm, ok := ids.Normalize(id)
	if !ok {
		return nil, invalid("id", "Invalid user ID format", id)
	}
	if active == nil {
		return nil, invalid("isActive", "isActive is required", nil)
	}
	if norm == actorID && !*active {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", ErrForbidden)
	}

	u, err := s.Repo.SetUserActive(ctx, norm, *active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, norm)
	}
	if err != nil {
		return nil, persistence("update user", err)
	}
	logging.FromContext(ctx).Info("user_status_changed", "user_id", norm, "is_active", *active)
	return u, nil
}
