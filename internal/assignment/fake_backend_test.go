package assignment

import (
	"context"
	"errors"
	"sync"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/models"
)

// fakeBackend is an in-memory stand-in for the delivery API. Assigning an
// order moves it to in_route, as the real backend does.
type fakeBackend struct {
	mu sync.Mutex

	orders    map[uint]models.Order
	routes    map[uint]models.Route
	zones     []models.Zone
	timeZones []models.TimeZone

	nextRouteID uint
	assignErr   error
	detailErr   error
	ordersErr   error
	extraDetail []models.Order

	assignCalls []assignCall
	createCalls []backend.NewRoute
	ordersCalls int
	routesCalls int
	detailCalls int
}

type assignCall struct {
	RouteID uint
	Orders  []uint
}

func newFakeBackend(orders ...models.Order) *fakeBackend {
	fb := &fakeBackend{
		orders: make(map[uint]models.Order),
		routes: map[uint]models.Route{
			100: {ID: 100, LocalStatus: models.RouteCreated},
		},
		zones: []models.Zone{
			{ID: 3, Name: "Norte", Price: 1500},
			{ID: 4, Name: "Sur", Price: 1800},
		},
		timeZones: []models.TimeZone{
			{ID: 7, Name: "De 8:00 a 12:00"},
			{ID: 8, Name: "Mañana"},
			{ID: 9, Name: "Tarde", StartTime: "14:30"},
		},
		nextRouteID: 200,
	}
	for _, o := range orders {
		fb.orders[o.ID] = o
	}
	return fb
}

func (f *fakeBackend) OrdersByStates(_ context.Context, _ backend.Session, _ []models.OrderStatus) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeBackend) OrdersByIDs(_ context.Context, _ backend.Session, ids []uint) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	out := append([]models.Order(nil), f.extraDetail...)
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackend) AllRoutesByStatus(_ context.Context, _ backend.Session, st models.RouteStatus, _ int) ([]models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routesCalls++
	var out []models.Route
	for _, r := range f.routes {
		if r.LocalStatus == st {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) Zones(context.Context, backend.Session) ([]models.Zone, error) {
	return f.zones, nil
}

func (f *fakeBackend) TimeZones(context.Context, backend.Session) ([]models.TimeZone, error) {
	return f.timeZones, nil
}

func (f *fakeBackend) AssignOrders(_ context.Context, _ backend.Session, routeID uint, ids []uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls = append(f.assignCalls, assignCall{RouteID: routeID, Orders: append([]uint(nil), ids...)})
	if f.assignErr != nil {
		return f.assignErr
	}
	if _, ok := f.routes[routeID]; !ok {
		return &backend.StatusError{Code: 404, Body: "route not found"}
	}
	for _, id := range ids {
		o := f.orders[id]
		o.LocalStatus = models.OrderInRoute
		rid := routeID
		o.RouteID = &rid
		f.orders[id] = o
	}
	return nil
}

func (f *fakeBackend) CreateRoute(_ context.Context, _ backend.Session, in backend.NewRoute) (models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, in)
	r := models.Route{
		ID:            f.nextRouteID,
		LocalStatus:   models.RouteCreated,
		Zone:          models.Ref{ID: in.Zone},
		TimeZone:      models.Ref{ID: in.TimeZone},
		ScheduledDate: &in.ScheduledDate,
	}
	f.routes[r.ID] = r
	f.nextRouteID++
	return r, nil
}

func (f *fakeBackend) CancelRoute(_ context.Context, _ backend.Session, routeID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[routeID]
	if !ok {
		return errors.New("route not found")
	}
	r.LocalStatus = models.RouteCancelled
	f.routes[routeID] = r
	return nil
}

func (f *fakeBackend) RemoveOrderFromRoute(_ context.Context, _ backend.Session, _ uint, orderID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[orderID]
	o.LocalStatus = models.OrderPendingRouteAssignment
	o.RouteID = nil
	f.orders[orderID] = o
	return nil
}

func (f *fakeBackend) UpdateRoute(context.Context, backend.Session, uint, backend.RoutePatch) error {
	return nil
}

// setStatus changes an order behind the dashboard's back.
func (f *fakeBackend) setStatus(id uint, st models.OrderStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	o.LocalStatus = st
	f.orders[id] = o
}

func (f *fakeBackend) counts() (orders, routes, detail int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ordersCalls, f.routesCalls, f.detailCalls
}

type harness struct {
	fb       *fakeBackend
	orders   *feeds.OrderFeed
	routes   *feeds.RouteFeed
	ref      *feeds.Reference
	sel      *Selection
	view     *View
	actions  *Actions
	recorded []models.AssignmentRecord
}

func (h *harness) RecordAssignment(_ context.Context, rec models.AssignmentRecord) {
	h.recorded = append(h.recorded, rec)
}

func newHarness(fb *fakeBackend) *harness {
	s := backend.Session{ID: "sid", AdminID: 1, Token: "tok"}
	h := &harness{fb: fb}
	h.orders = feeds.NewOrderFeed(fb, s)
	h.routes = feeds.NewRouteFeed(fb, s)
	h.ref = feeds.NewReference(fb, s)
	h.sel = NewSelection()
	h.view = NewView(h.orders, h.ref, fb, s, h.sel)
	h.actions = NewActions(fb, s, h.sel, h.view, h.ref, feeds.NewCounters(h.orders, h.routes), h)

	ctx := context.Background()
	_ = h.ref.Load(ctx)
	_ = h.orders.Refresh(ctx)
	_ = h.routes.Refresh(ctx)
	return h
}

func pending(id uint, zone, tz models.Ref, lat, lng *float64) models.Order {
	o := models.Order{
		ID:          id,
		LocalStatus: models.OrderPendingRouteAssignment,
		Zone:        zone,
		TimeZone:    tz,
	}
	if lat != nil && lng != nil {
		o.FinalDestiny = models.Destiny{Latitude: models.Num(*lat), Longitude: models.Num(*lng)}
	}
	return o
}

func f64(v float64) *float64 { return &v }
