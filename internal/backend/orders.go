package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"frost_dispatch/internal/models"
)

// OrdersByStates fetches every order whose localStatus is one of states.
func (c *Client) OrdersByStates(ctx context.Context, s Session, states []models.OrderStatus) ([]models.Order, error) {
	names := make([]string, 0, len(states))
	for _, st := range states {
		names = append(names, string(st))
	}
	q := url.Values{}
	q.Set("states", strings.Join(names, ","))

	var raw json.RawMessage
	if err := c.call(ctx, s, "orders.find_by_states", http.MethodGet, "/orders/find-by-states", q, nil, &raw); err != nil {
		return nil, err
	}
	orders, err := decodeList[models.Order](raw)
	if err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// OrdersByIDs fetches the full detail of the given orders.
func (c *Client) OrdersByIDs(ctx context.Context, s Session, ids []uint) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	body := map[string][]uint{"ids": ids}

	var raw json.RawMessage
	if err := c.call(ctx, s, "orders.get_by_ids", http.MethodPost, "/orders/get-by-ids", nil, body, &raw); err != nil {
		return nil, err
	}
	orders, err := decodeList[models.Order](raw)
	if err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// CancelOrder cancels an order on behalf of the admin.
func (c *Client) CancelOrder(ctx context.Context, s Session, orderID uint, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	path := fmt.Sprintf("/orders/%d/cancel", orderID)
	return c.call(ctx, s, "orders.cancel", http.MethodPost, path, nil, body, nil)
}

// UpdateOrderByAdmin patches the fields an admin may correct on an order.
func (c *Client) UpdateOrderByAdmin(ctx context.Context, s Session, orderID uint, patch map[string]any) (models.Order, error) {
	var out models.Order
	path := fmt.Sprintf("/orders/%d/update-by-admin", orderID)
	err := c.call(ctx, s, "orders.update_by_admin", http.MethodPatch, path, nil, patch, &out)
	return out, err
}
