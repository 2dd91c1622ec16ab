package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"frost_dispatch/internal/models"
)

// RoutePatch is the body of PATCH /route/:id. Nil fields are omitted.
type RoutePatch struct {
	Orders        []uint     `json:"orders,omitempty"`
	Delivery      *uint      `json:"delivery,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Name          *string    `json:"name,omitempty"`
}

// NewRoute is the body of POST /route.
type NewRoute struct {
	Zone          uint      `json:"zone"`
	TimeZone      uint      `json:"timeZone"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Observations  string    `json:"observations,omitempty"`
	Delivery      *uint     `json:"delivery,omitempty"`
}

// UpdateRoute issues PATCH /route/:id.
func (c *Client) UpdateRoute(ctx context.Context, s Session, routeID uint, patch RoutePatch) error {
	path := fmt.Sprintf("/route/%d", routeID)
	return c.call(ctx, s, "route.update", http.MethodPatch, path, nil, patch, nil)
}

// AssignOrders associates orderIDs with routeID in a single PATCH.
func (c *Client) AssignOrders(ctx context.Context, s Session, routeID uint, orderIDs []uint) error {
	return c.UpdateRoute(ctx, s, routeID, RoutePatch{Orders: orderIDs})
}

// CreateRoute issues POST /route and returns the created route.
func (c *Client) CreateRoute(ctx context.Context, s Session, in NewRoute) (models.Route, error) {
	var out models.Route
	err := c.call(ctx, s, "route.create", http.MethodPost, "/route", nil, in, &out)
	return out, err
}

// CancelRoute issues POST /route/:id/cancel.
func (c *Client) CancelRoute(ctx context.Context, s Session, routeID uint) error {
	path := fmt.Sprintf("/route/%d/cancel", routeID)
	return c.call(ctx, s, "route.cancel", http.MethodPost, path, nil, nil, nil)
}

// RemoveOrderFromRoute issues POST /route/:id/remove-order/:orderId.
func (c *Client) RemoveOrderFromRoute(ctx context.Context, s Session, routeID, orderID uint) error {
	path := fmt.Sprintf("/route/%d/remove-order/%d", routeID, orderID)
	return c.call(ctx, s, "route.remove_order", http.MethodPost, path, nil, nil, nil)
}

// RoutesByStatus fetches one page of routes in the given status.
func (c *Client) RoutesByStatus(ctx context.Context, s Session, status models.RouteStatus, page, limit int) (models.RoutePage, error) {
	q := url.Values{}
	q.Set("status", string(status))
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out models.RoutePage
	if err := c.call(ctx, s, "route.by_status", http.MethodGet, "/route/by-status", q, nil, &out); err != nil {
		return models.RoutePage{}, err
	}
	if out.Data == nil {
		out.Data = []models.Route{}
	}
	return out, nil
}

// maxRoutePages bounds AllRoutesByStatus against a backend that never reports a last page.
const maxRoutePages = 50

// AllRoutesByStatus walks every page of RoutesByStatus.
func (c *Client) AllRoutesByStatus(ctx context.Context, s Session, status models.RouteStatus, limit int) ([]models.Route, error) {
	var all []models.Route
	for page := 1; page <= maxRoutePages; page++ {
		p, err := c.RoutesByStatus(ctx, s, status, page, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if len(p.Data) == 0 || p.PageCount <= page {
			break
		}
	}
	if all == nil {
		all = []models.Route{}
	}
	return all, nil
}

// Route fetches a single route with its orders.
func (c *Client) Route(ctx context.Context, s Session, routeID uint) (models.Route, error) {
	var out models.Route
	path := fmt.Sprintf("/route/%d", routeID)
	err := c.call(ctx, s, "route.get", http.MethodGet, path, nil, nil, &out)
	return out, err
}
