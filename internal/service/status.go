package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var orderStatuses = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

// rank orders the fulfilment path; cancelled sits outside it.
var rank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

func allowedStatuses() string {
	parts := make([]string, 0, len(orderStatuses))
	for _, st := range orderStatuses {
		parts = append(parts, string(st))
	}
	return strings.Join(parts, ", ")
}

func ParseStatus(s string) (models.OrderStatus, bool) {
	st := models.OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range orderStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

func IsTerminal(st models.OrderStatus) bool {
	return st == models.OrderStatusDelivered || st == models.OrderStatusCancelled
}

// CanTransition allows forward moves along the fulfilment path, skipping
// ahead included, and cancellation from any non-terminal state.
func CanTransition(from, to models.OrderStatus) bool {
	if IsTerminal(from) || from == to {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fr, ok1 := rank[from]
	tr, ok2 := rank[to]
	return ok1 && ok2 && tr > fr
}

// UpdateStatus moves an order to a new status. The status fields, the history
// entry and, for cancellations, the restocked lines commit together.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, req transport.StatusUpdateRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.status")

	if strings.TrimSpace(req.Status) == "" {
		return nil, invalid("status", "status is required, one of: "+allowedStatuses(), nil)
	}
	to, ok := ParseStatus(req.Status)
	if !ok {
		return nil, invalid("status", "status must be one of: "+allowedStatuses(), req.Status)
	}

	current, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	note := strings.TrimSpace(req.Note)
	fields := map[string]any{"status": to}
	if note != "" {
		fields["notes"] = note
	}
	if req.TrackingNumber != nil {
		fields["tracking_number"] = strings.TrimSpace(*req.TrackingNumber)
	}
	switch {
	case to == models.OrderStatusDelivered && current.PaymentMethod == models.PaymentCOD:
		fields["payment_status"] = models.PaymentStatusPaid
	case to == models.OrderStatusCancelled && current.PaymentStatus == models.PaymentStatusPaid:
		fields["payment_status"] = models.PaymentStatusRefunded
	}

	entryNote := note
	if entryNote == "" {
		entryNote = "Status changed to " + string(to)
	}
	entry := &models.OrderStatusEntry{Status: to, Note: entryNote, Timestamp: s.now().UTC()}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateOrderStatus(ctx, current.ID, from, fields, entry); err != nil {
			return err
		}
		if to != models.OrderStatusCancelled {
			return nil
		}
		for _, it := range current.Items {
			if err := tx.IncrementStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, repo.ErrStatusChanged) {
		return nil, fmt.Errorf("%w: order is no longer %s", ErrInvalidTransition, from)
	}
	if err != nil {
		return nil, persistence("update order status", err)
	}

	updated, err := s.loadOrder(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	l.Info("order_status_changed", "order_number", updated.OrderNumber, "from", from, "to", to)

	s.invalidateStats(ctx)
	ev := orderEvent(events.TypeOrderStatusChanged, updated)
	ev.PrevStatus = string(from)
	s.background(ctx, "order_status_side_effects", func(ctx context.Context) error {
		if s.Events != nil {
			if err := s.Events.PublishEvent(ctx, updated.OrderNumber, ev); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
		}
		if s.Index != nil {
			if err := s.Index.IndexOrder(ctx, updated); err != nil {
				return fmt.Errorf("index: %w", err)
			}
		}
		return nil
	})
	return updated, nil
}
