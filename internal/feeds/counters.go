package feeds

import (
	"context"

	"golang.org/x/sync/errgroup"

	"frost_dispatch/internal/models"
)

// Counts are the sidebar aggregates.
type Counts struct {
	CreatedRoutes     int                        `json:"created_routes"`
	ActiveRoutes      int                        `json:"active_routes"`
	PendingSettlement int                        `json:"pending_settlement"`
	OrdersByStatus    map[models.OrderStatus]int `json:"orders_by_status"`
	OrdersError       string                     `json:"orders_error,omitempty"`
	RoutesError       string                     `json:"routes_error,omitempty"`
}

// Counters derives Counts from the order and route feeds.
type Counters struct {
	orders *OrderFeed
	routes *RouteFeed
}

func NewCounters(orders *OrderFeed, routes *RouteFeed) *Counters {
	return &Counters{orders: orders, routes: routes}
}

// Counts recomputes the aggregates from the feeds' current lists.
func (c *Counters) Counts() Counts {
	ords := c.orders.Snapshot()
	rs := c.routes.Snapshot()

	out := Counts{
		OrdersByStatus:    models.CountByStatus(ords.Orders),
		PendingSettlement: len(rs.PendingSettlement),
	}
	for _, r := range rs.Routes {
		switch r.LocalStatus {
		case models.RouteCreated:
			out.CreatedRoutes++
		case models.RouteActive:
			out.ActiveRoutes++
		}
	}
	if ords.Err != nil {
		out.OrdersError = ords.Err.Error()
	}
	if rs.Err != nil {
		out.RoutesError = rs.Err.Error()
	}
	return out
}

// RefreshCounts refetches both feeds concurrently and recomputes. Feed errors
// are reflected in the returned Counts rather than returned.
func (c *Counters) RefreshCounts(ctx context.Context) Counts {
	var g errgroup.Group
	g.Go(func() error { _ = c.orders.Refresh(ctx); return nil })
	g.Go(func() error { _ = c.routes.Refresh(ctx); return nil })
	_ = g.Wait()
	return c.Counts()
}
