package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{`3`, Ref{ID: 3}},
		{`"3"`, Ref{ID: 3}},
		{`"Norte"`, Ref{Name: "Norte"}},
		{`{"id":3,"name":"Norte"}`, Ref{ID: 3, Name: "Norte"}},
		{`null`, Ref{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var r Ref
			require.NoError(t, json.Unmarshal([]byte(tt.in), &r))
			assert.Equal(t, tt.want, r)
		})
	}

	var r Ref
	assert.Error(t, json.Unmarshal([]byte(`-1`), &r))
}

func TestRefMatches(t *testing.T) {
	assert.True(t, Ref{ID: 3}.Matches(3, "Norte"))
	assert.False(t, Ref{ID: 4, Name: "Norte"}.Matches(3, "Norte"))
	assert.True(t, Ref{Name: " norte "}.Matches(3, "Norte"))
	assert.False(t, Ref{Name: "Norte"}.Matches(3, ""))
	assert.False(t, Ref{}.Matches(3, "Norte"))
}

func TestCoordinateTolerantDecode(t *testing.T) {
	var d Destiny
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":"-34.6","longitude":-58.38,"address":"Av. 1"}`), &d))
	assert.True(t, d.HasCoordinates())
	assert.InDelta(t, -34.6, d.Latitude.Value, 1e-9)

	for _, raw := range []string{`{"latitude":null,"longitude":1}`, `{"latitude":"","longitude":1}`, `{"latitude":"abc","longitude":1}`, `{"longitude":1}`} {
		var d Destiny
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		assert.False(t, d.HasCoordinates(), raw)
	}

	b, err := json.Marshal(Destiny{Latitude: Num(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":1.5,"longitude":null,"address":""}`, string(b))
}

func TestOrderDecodesMixedReferences(t *testing.T) {
	raw := `{"id":1,"TN_Order_number":"A-1","localStatus":"pending_route_assignment",
		"zone":{"id":3,"name":"Norte"},"timezone":"Mañana","finalDestiny":{"latitude":-34.6,"longitude":-58.4}}`
	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))
	assert.Equal(t, OrderPendingRouteAssignment, o.LocalStatus)
	assert.Equal(t, uint(3), o.Zone.ID)
	assert.Equal(t, "Mañana", o.TimeZone.Label())
	assert.True(t, o.FinalDestiny.HasCoordinates())
}

func TestCountAndFilterByStatus(t *testing.T) {
	orders := []Order{
		{ID: 1, LocalStatus: OrderInRoute},
		{ID: 2, LocalStatus: OrderPendingRouteAssignment},
		{ID: 3, LocalStatus: OrderInRoute},
	}
	counts := CountByStatus(orders)
	assert.Equal(t, 2, counts[OrderInRoute])
	assert.Equal(t, 1, counts[OrderPendingRouteAssignment])

	got := FilterByStatus(orders, OrderInRoute, OrderFinished)
	require.Len(t, got, 2)
	assert.Equal(t, uint(3), got[1].ID)
}

func TestRoutePendingSettlement(t *testing.T) {
	assert.True(t, Route{LocalStatus: RouteClosed}.PendingSettlement())
	assert.False(t, Route{LocalStatus: RouteClosed, Rendered: true}.PendingSettlement())
	assert.False(t, Route{LocalStatus: RouteActive}.PendingSettlement())
}

func TestDriverLocationTimestamps(t *testing.T) {
	var a, b, c DriverLocation
	require.NoError(t, json.Unmarshal([]byte(`{"adminId":5,"lat":1,"lng":2,"timestamp":"2025-03-01T10:00:00"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"adminId":5,"timestamp":"2025-03-01T07:00:00-03:00"}`), &b))
	require.NoError(t, json.Unmarshal([]byte(`{"adminId":5,"timestamp":1740823200000}`), &c))

	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(a.Timestamp))
	assert.True(t, want.Equal(b.Timestamp))
	assert.True(t, want.Equal(c.Timestamp))
	assert.Equal(t, uint(5), a.AdminID)

	var bad DriverLocation
	assert.Error(t, json.Unmarshal([]byte(`{"timestamp":"yesterday"}`), &bad))
}

func TestWatermarkAdmits(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var w Watermark
	assert.True(t, w.Admits(DriverLocation{Seq: 4, Timestamp: t0.Add(time.Minute)}), "empty mark admits anything")
	w.Advance(DriverLocation{Seq: 4, Timestamp: t0.Add(time.Minute)})

	assert.True(t, w.Admits(DriverLocation{Seq: 5, Timestamp: t0}), "sequence wins over timestamp")
	assert.False(t, w.Admits(DriverLocation{Seq: 4}))
	assert.False(t, w.Admits(DriverLocation{Timestamp: t0.Add(time.Minute)}))
	assert.True(t, w.Admits(DriverLocation{Timestamp: t0.Add(2 * time.Minute)}))
	assert.True(t, w.Admits(DriverLocation{}))
}

func TestWatermarkNeverMovesBack(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var w Watermark
	w.Advance(DriverLocation{Seq: 10, Timestamp: t0.Add(time.Minute)})
	w.Advance(DriverLocation{})
	w.Advance(DriverLocation{Seq: 2, Timestamp: t0})

	assert.Equal(t, Watermark{Seq: 10, Time: t0.Add(time.Minute)}, w)
	assert.False(t, w.Admits(DriverLocation{Seq: 3}))
}
