package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderDocument struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	ItemNames     []string  `json:"itemNames"`
	Status        string    `json:"status"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"createdAt"`
}

func DocumentFromOrder(o *models.Order) OrderDocument {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, it.Name)
	}
	return OrderDocument{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerInfo.Name,
		CustomerEmail: o.CustomerInfo.Email,
		CustomerPhone: o.CustomerInfo.Phone,
		ItemNames:     names,
		Status:        string(o.Status),
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
}

type OrderIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewOrderIndex(es *elasticsearch.Client, index string) *OrderIndex {
	return &OrderIndex{es: es, index: index}
}

func (x *OrderIndex) IndexOrder(ctx context.Context, o *models.Order) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocumentFromOrder(o)); err != nil {
		return fmt.Errorf("index order: %w", err)
	}

	res, err := x.es.Index(
		x.index,
		&buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(o.ID),
	)
	if err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index order: %s: %s", res.Status(), body)
	}
	return nil
}

// SearchOrders returns matching order ids, best match first.
func (x *OrderIndex) SearchOrders(ctx context.Context, query string, from, size int) (int64, []string, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"orderNumber^3", "customerName^2", "customerEmail^2", "customerPhone", "itemNames"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search orders: %s: %s", res.Status(), raw)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search orders: decode: %w", err)
	}

	ids := make([]string, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.ID
	}
	return r.Hits.Total.Value, ids, nil
}
