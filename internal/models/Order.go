package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// OrderStatus is the backend-asserted lifecycle stage of an order.
type OrderStatus string

const (
	OrderCreated                OrderStatus = "created"
	OrderDataCompleted          OrderStatus = "data_completed"
	OrderPendingRouteAssignment OrderStatus = "pending_route_assignment"
	OrderPendingAssembly        OrderStatus = "pending_assembly"
	OrderPendingPickUp          OrderStatus = "pending_pick_up"
	OrderPendingDeliveryPickUp  OrderStatus = "pending_delivery_pick_up"
	OrderInRoute                OrderStatus = "in_route"
	OrderReturned               OrderStatus = "returned"
	OrderFinished               OrderStatus = "finished"
	OrderCanceled               OrderStatus = "canceled"
	OrderRejected               OrderStatus = "rejected"
)

// DashboardOrderStates are the statuses the admin session keeps in its order feed.
var DashboardOrderStates = []OrderStatus{
	OrderCreated,
	OrderDataCompleted,
	OrderPendingRouteAssignment,
	OrderPendingAssembly,
	OrderPendingPickUp,
	OrderPendingDeliveryPickUp,
	OrderInRoute,
	OrderReturned,
	OrderFinished,
	OrderCanceled,
	OrderRejected,
}

// Destiny is where an order must be delivered.
type Destiny struct {
	Latitude  Coordinate `json:"latitude"`
	Longitude Coordinate `json:"longitude"`
	Address   string     `json:"address"`
}

// HasCoordinates reports whether both coordinates are valid numbers.
func (d Destiny) HasCoordinates() bool {
	return d.Latitude.Valid && d.Longitude.Valid
}

// Coordinate is a latitude or longitude that may arrive as a number, a
// numeric string, an empty string or null.
type Coordinate struct {
	Value float64
	Valid bool
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	*c = Coordinate{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = s
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*c = Coordinate{Value: v, Valid: true}
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Num builds a valid Coordinate.
func Num(v float64) Coordinate { return Coordinate{Value: v, Valid: true} }

// Order is the client copy of a backend order.
type Order struct {
	ID            uint        `json:"id"`
	OrderNumber   string      `json:"TN_Order_number"`
	LocalStatus   OrderStatus `json:"localStatus"`
	Zone          Ref         `json:"zone"`
	TimeZone      Ref         `json:"timezone"`
	FinalDestiny  Destiny     `json:"finalDestiny"`
	PaymentType   string      `json:"paymentType"`
	TotalToPay    float64     `json:"totalToPay"`
	DeliveryPrice float64     `json:"deliveryPrice"`
	CustomerName  string      `json:"customerName"`
	Phone         string      `json:"phone"`
	Weight        float64     `json:"weight"`
	AdminNotes    string      `json:"adminNotes"`
	RouteID       *uint       `json:"routeId,omitempty"`
	RouteOrder    int         `json:"routeOrder,omitempty"`
}

// CountByStatus returns the number of orders per status.
func CountByStatus(orders []Order) map[OrderStatus]int {
	out := make(map[OrderStatus]int)
	for _, o := range orders {
		out[o.LocalStatus]++
	}
	return out
}

// FilterByStatus keeps orders whose status is one of the given ones.
func FilterByStatus(orders []Order, statuses ...OrderStatus) []Order {
	want := make(map[OrderStatus]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := want[o.LocalStatus]; ok {
			out = append(out, o)
		}
	}
	return out
}
