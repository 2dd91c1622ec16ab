package backend

import (
	"context"
	"fmt"
	"net/http"

	"frost_dispatch/internal/models"
)

// CreatePayment issues POST /payment.
func (c *Client) CreatePayment(ctx context.Context, s Session, p models.Payment) (models.Payment, error) {
	var out models.Payment
	err := c.call(ctx, s, "payment.create", http.MethodPost, "/payment", nil, p, &out)
	return out, err
}

// UpdatePaymentStatus issues PATCH /payment/:id/status-update.
func (c *Client) UpdatePaymentStatus(ctx context.Context, s Session, paymentID uint, status string) error {
	path := fmt.Sprintf("/payment/%d/status-update", paymentID)
	return c.call(ctx, s, "payment.status_update", http.MethodPatch, path, nil, map[string]string{"status": status}, nil)
}
