package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders []models.Order
	err    error
	calls  int
}

func (f *fakeOrders) OrdersByStates(_ context.Context, _ backend.Session, _ []models.OrderStatus) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Order(nil), f.orders...), nil
}

type fakeRoutes struct {
	byStatus map[models.RouteStatus][]models.Route
	failOn   models.RouteStatus
}

func (f *fakeRoutes) AllRoutesByStatus(_ context.Context, _ backend.Session, st models.RouteStatus, _ int) ([]models.Route, error) {
	if st == f.failOn {
		return nil, errors.New("boom")
	}
	return f.byStatus[st], nil
}

func TestOrderFeedRefreshReplacesList(t *testing.T) {
	src := &fakeOrders{orders: []models.Order{
		{ID: 1, LocalStatus: models.OrderPendingRouteAssignment},
		{ID: 2, LocalStatus: models.OrderInRoute},
	}}
	feed := NewOrderFeed(src, backend.Session{ID: "s"})

	require.NoError(t, feed.Refresh(context.Background()))
	assert.Len(t, feed.Orders(), 2)
	assert.Len(t, feed.ByStatus(models.OrderPendingRouteAssignment), 1)

	src.orders = []models.Order{{ID: 3, LocalStatus: models.OrderFinished}}
	require.NoError(t, feed.Refresh(context.Background()))
	orders := feed.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, uint(3), orders[0].ID)
}

func TestOrderFeedFailureEmptiesListAndKeepsError(t *testing.T) {
	src := &fakeOrders{orders: []models.Order{{ID: 1}}}
	feed := NewOrderFeed(src, backend.Session{})
	require.NoError(t, feed.Refresh(context.Background()))

	src.err = errors.New("network down")
	err := feed.Refresh(context.Background())
	require.Error(t, err)

	snap := feed.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.NotNil(t, snap.Orders)
	assert.EqualError(t, snap.Err, "network down")
}

func TestOrderFeedPollStopsWithContext(t *testing.T) {
	src := &fakeOrders{}
	feed := NewOrderFeed(src, backend.Session{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		feed.Poll(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll did not stop")
	}
}

func TestRouteFeedSplitsOpenAndPendingSettlement(t *testing.T) {
	src := &fakeRoutes{byStatus: map[models.RouteStatus][]models.Route{
		models.RouteActive:  {{ID: 1, LocalStatus: models.RouteActive}},
		models.RouteCreated: {{ID: 2, LocalStatus: models.RouteCreated}, {ID: 3, LocalStatus: models.RouteCreated}},
		models.RouteClosed: {
			{ID: 4, LocalStatus: models.RouteClosed, Rendered: false},
			{ID: 5, LocalStatus: models.RouteClosed, Rendered: true},
		},
	}}
	feed := NewRouteFeed(src, backend.Session{})
	require.NoError(t, feed.Refresh(context.Background()))

	snap := feed.Snapshot()
	assert.Len(t, snap.Routes, 3)
	require.Len(t, snap.PendingSettlement, 1)
	assert.Equal(t, uint(4), snap.PendingSettlement[0].ID)

	r, ok := feed.Find(2)
	assert.True(t, ok)
	assert.Equal(t, models.RouteCreated, r.LocalStatus)
	_, ok = feed.Find(4)
	assert.False(t, ok, "closed routes are not part of the open list")
}

func TestRouteFeedHasNoPartialState(t *testing.T) {
	src := &fakeRoutes{
		byStatus: map[models.RouteStatus][]models.Route{
			models.RouteActive: {{ID: 1, LocalStatus: models.RouteActive}},
		},
		failOn: models.RouteCreated,
	}
	feed := NewRouteFeed(src, backend.Session{})
	require.Error(t, feed.Refresh(context.Background()))

	snap := feed.Snapshot()
	assert.Empty(t, snap.Routes)
	assert.Error(t, snap.Err)
}

func TestCountersDeriveFromFeeds(t *testing.T) {
	orders := NewOrderFeed(&fakeOrders{orders: []models.Order{
		{ID: 1, LocalStatus: models.OrderPendingRouteAssignment},
		{ID: 2, LocalStatus: models.OrderPendingRouteAssignment},
		{ID: 3, LocalStatus: models.OrderInRoute},
	}}, backend.Session{})
	routes := NewRouteFeed(&fakeRoutes{byStatus: map[models.RouteStatus][]models.Route{
		models.RouteActive:  {{ID: 1, LocalStatus: models.RouteActive}},
		models.RouteCreated: {{ID: 2, LocalStatus: models.RouteCreated}},
		models.RouteClosed:  {{ID: 3, LocalStatus: models.RouteClosed}},
	}}, backend.Session{})

	c := NewCounters(orders, routes)
	assert.Equal(t, 0, c.Counts().ActiveRoutes)

	counts := c.RefreshCounts(context.Background())
	assert.Equal(t, 1, counts.ActiveRoutes)
	assert.Equal(t, 1, counts.CreatedRoutes)
	assert.Equal(t, 1, counts.PendingSettlement)
	assert.Equal(t, 2, counts.OrdersByStatus[models.OrderPendingRouteAssignment])
	assert.Equal(t, 1, counts.OrdersByStatus[models.OrderInRoute])
	assert.Empty(t, counts.OrdersError)
}

type fakeReference struct{ zoneErr error }

func (f fakeReference) Zones(context.Context, backend.Session) ([]models.Zone, error) {
	if f.zoneErr != nil {
		return nil, f.zoneErr
	}
	return []models.Zone{{ID: 3, Name: "Norte", Price: 1500}}, nil
}

func (f fakeReference) TimeZones(context.Context, backend.Session) ([]models.TimeZone, error) {
	return []models.TimeZone{{ID: 7, Name: "De 8:00 a 12:00"}}, nil
}

func TestReferenceLookups(t *testing.T) {
	ref := NewReference(fakeReference{}, backend.Session{})
	require.NoError(t, ref.Load(context.Background()))

	z, ok := ref.Zone(3)
	assert.True(t, ok)
	assert.Equal(t, "Norte", z.Name)
	tz, ok := ref.TimeZone(7)
	assert.True(t, ok)
	assert.Equal(t, "De 8:00 a 12:00", tz.Name)
	_, ok = ref.Zone(99)
	assert.False(t, ok)
}

func TestReferenceKeepsWorkingListOnPartialFailure(t *testing.T) {
	ref := NewReference(fakeReference{zoneErr: errors.New("zones down")}, backend.Session{})
	assert.Error(t, ref.Load(context.Background()))

	zones, err := ref.Zones()
	assert.Empty(t, zones)
	assert.Error(t, err)
	tzs, _ := ref.TimeZones()
	assert.Len(t, tzs, 1)
}
