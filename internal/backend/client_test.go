package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frost_dispatch/internal/models"
)

var testSession = Session{ID: "sid-1", AdminID: 9, Role: "admin", Token: "tok-123"}

func TestURLBuildsAbsolutePaths(t *testing.T) {
	c := NewClient("https://api.test/")
	q := url.Values{}
	q.Set("status", "active")

	assert.Equal(t, "https://api.test/route/by-status?status=active", c.URL("/route/by-status", q))
	assert.Equal(t, "https://api.test/zone", c.URL("zone", nil))
}

func TestRequestsCarryTokenHeader(t *testing.T) {
	var gotToken, gotAuth, gotStates string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("token")
		gotAuth = r.Header.Get("Authorization")
		gotStates = r.URL.Query().Get("states")
		_, _ = io.WriteString(w, `[{"id":1,"localStatus":"pending_route_assignment","zone":"Norte","timezone":{"id":7,"name":"Mañana"}}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	orders, err := c.OrdersByStates(context.Background(), testSession, []models.OrderStatus{
		models.OrderPendingRouteAssignment, models.OrderInRoute,
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-123", gotToken)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "pending_route_assignment,in_route", gotStates)
	require.Len(t, orders, 1)
	assert.Equal(t, "Norte", orders[0].Zone.Name)
	assert.Equal(t, uint(7), orders[0].TimeZone.ID)
}

func TestAssignOrdersSendsSinglePatch(t *testing.T) {
	var calls int32
	var method, path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).AssignOrders(context.Background(), testSession, 100, []uint{1})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/route/100", path)
	assert.Equal(t, map[string]any{"orders": []any{float64(1)}}, body)
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).CancelRoute(context.Background(), testSession, 5)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "route not found", se.Body)
}

func TestBreakerOpensOnServerErrorsOnly(t *testing.T) {
	var status int32 = http.StatusBadRequest
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(int(atomic.LoadInt32(&status)))
	}))
	defer srv.Close()

	st := DefaultBreakerSettings("test")
	st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 }
	st.Timeout = time.Minute
	c := NewClient(srv.URL, WithBreaker(st))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := c.CancelRoute(ctx, testSession, 1)
		assert.True(t, IsStatus(err, http.StatusBadRequest))
	}

	atomic.StoreInt32(&status, http.StatusBadGateway)
	_ = c.CancelRoute(ctx, testSession, 1)
	_ = c.CancelRoute(ctx, testSession, 1)
	before := atomic.LoadInt32(&calls)

	err := c.CancelRoute(ctx, testSession, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open breaker must not reach the backend")
}

func TestAllRoutesByStatusWalksPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		assert.Equal(t, "created", r.URL.Query().Get("status"))
		switch page {
		case "1":
			_, _ = io.WriteString(w, `{"data":[{"id":1},{"id":2}],"page":1,"pageCount":2,"total":3}`)
		case "2":
			_, _ = io.WriteString(w, `{"data":[{"id":3}],"page":2,"pageCount":2,"total":3}`)
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer srv.Close()

	routes, err := NewClient(srv.URL).AllRoutesByStatus(context.Background(), testSession, models.RouteCreated, 2)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, uint(3), routes[2].ID)
}

func TestDecodeListAcceptsEnvelope(t *testing.T) {
	zones, err := decodeList[models.Zone](json.RawMessage(`{"data":[{"id":3,"name":"Norte","price":1500}]}`))
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, 1500.0, zones[0].Price)

	empty, err := decodeList[models.Zone](json.RawMessage(`null`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAdminsByRoleFilter(t *testing.T) {
	var filter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).AdminsByRole(context.Background(), testSession, "delivery")
	require.NoError(t, err)
	assert.Equal(t, "role||$eq||delivery", filter)
}

func TestLoginRequiresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("token"))
		_, _ = io.WriteString(w, `{"admin":{"id":4}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.test", "pw")
	assert.Error(t, err)
}
