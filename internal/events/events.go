package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeOrderCreated       = "order_created"
	TypeOrderStatusChanged = "order_status_changed"
)

type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      string    `json:"userId,omitempty"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	PrevStatus  string    `json:"prevStatus,omitempty"`
	Total       float64   `json:"total"`
	Items       int       `json:"items"`
	At          time.Time `json:"at"`
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, any) error { return nil }
func (Nop) Close() error                                    { return nil }

// Memory keeps published events in process.
type Memory struct {
	mu     sync.Mutex
	events []any
}

func (m *Memory) PublishEvent(_ context.Context, _ string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) Events() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.events))
	copy(out, m.events)
	return out
}
