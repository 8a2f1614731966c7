package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Publisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type OrderIndexer interface {
	IndexOrder(ctx context.Context, o *models.Order) error
	SearchOrders(ctx context.Context, query string, from, size int) (int64, []string, error)
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *models.Order) error
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}
