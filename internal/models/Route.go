package models

import "time"

// RouteStatus is the backend-asserted lifecycle stage of a route.
type RouteStatus string

const (
	RouteCreated   RouteStatus = "created"
	RouteActive    RouteStatus = "active"
	RouteClosed    RouteStatus = "closed"
	RouteCancelled RouteStatus = "cancelled"
)

// Route is a scheduled grouping of orders assigned to one driver for a
// zone, time-slot and date.
type Route struct {
	ID            uint         `json:"id"`
	Name          string       `json:"name,omitempty"`
	LocalStatus   RouteStatus  `json:"localStatus"`
	Zone          Ref          `json:"zone"`
	TimeZone      Ref          `json:"timeZone"`
	ScheduledDate *time.Time   `json:"scheduledDate,omitempty"`
	Delivery      *RouteDriver `json:"delivery,omitempty"`
	Orders        []Order      `json:"orders,omitempty"`
	RouteTolls    float64      `json:"routeTolls"`
	Rendered      bool         `json:"rendered"`
	Observations  string       `json:"observations,omitempty"`
}

// RouteDriver is the driver assigned to a route. Latitude and Longitude hold
// the last position the backend knew when the route was fetched.
type RouteDriver struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Latitude  Coordinate `json:"lat"`
	Longitude Coordinate `json:"lng"`
	IsOnline  bool       `json:"isOnline"`
}

// PendingSettlement reports whether a closed route still has to be rendered ("por rendir").
func (r Route) PendingSettlement() bool {
	return r.LocalStatus == RouteClosed && !r.Rendered
}

// RoutePage is one page of GET /route/by-status.
type RoutePage struct {
	Data      []Route `json:"data"`
	Page      int     `json:"page"`
	PageCount int     `json:"pageCount"`
	Total     int     `json:"total"`
}
