// Package assignment implements the pending-order assignment workflow: the
// zone/time-slot filtered view, the selection set and the route actions.
package assignment

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/models"
)

// ErrStale is returned by SelectTab when a newer tab selection superseded it.
var ErrStale = errors.New("superseded by a newer tab selection")

// DetailSource fetches full order details by id.
type DetailSource interface {
	OrdersByIDs(ctx context.Context, s backend.Session, ids []uint) ([]models.Order, error)
}

// Tab is the zone and time-slot pair the operator is looking at.
type Tab struct {
	ZoneID     uint `json:"zone" form:"zone"`
	TimeZoneID uint `json:"timezone" form:"timezone"`
}

// Marker is an order that can be drawn on the map.
type Marker struct {
	OrderID    uint    `json:"order_id"`
	Number     string  `json:"number"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Address    string  `json:"address"`
	RouteOrder int     `json:"route_order,omitempty"`
	Selected   bool    `json:"selected"`
}

// State is what the assignment screen renders.
type State struct {
	Tab                Tab            `json:"tab"`
	Orders             []models.Order `json:"orders"`
	Markers            []Marker       `json:"markers"`
	Selected           []uint         `json:"selected"`
	SelectedOutsideTab int            `json:"selected_outside_tab"`
	Error              string         `json:"error,omitempty"`
}

// View derives the pending orders of one zone/time-slot and keeps their detail.
type View struct {
	orders  *feeds.OrderFeed
	ref     *feeds.Reference
	details DetailSource
	session backend.Session
	sel     *Selection

	mu     sync.Mutex
	tab    Tab
	gen    uint64
	subset []models.Order
	err    error
}

func NewView(orders *feeds.OrderFeed, ref *feeds.Reference, details DetailSource, s backend.Session, sel *Selection) *View {
	return &View{
		orders:  orders,
		ref:     ref,
		details: details,
		session: s,
		sel:     sel,
		subset:  []models.Order{},
	}
}

// SelectTab switches to tab, derives the pending order ids for it from the
// order feed and fetches their detail. Only the most recent call may apply
// its result; an older call that finishes later returns ErrStale. The
// selection is left untouched.
func (v *View) SelectTab(ctx context.Context, tab Tab) error {
	v.mu.Lock()
	v.tab = tab
	v.gen++
	gen := v.gen
	v.mu.Unlock()
	return v.load(ctx, tab, gen)
}

// Reload re-derives the current tab. The tab is read and the generation
// taken under one lock, so a concurrent SelectTab always wins.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	tab := v.tab
	v.gen++
	gen := v.gen
	v.mu.Unlock()
	return v.load(ctx, tab, gen)
}

// load fetches the detail of tab and applies it if gen is still current.
func (v *View) load(ctx context.Context, tab Tab, gen uint64) error {
	ids := v.pendingIDs(tab)

	var (
		detail []models.Order
		err    error
	)
	if len(ids) > 0 {
		detail, err = v.details.OrdersByIDs(ctx, v.session, ids)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		logrus.WithFields(logrus.Fields{
			"session_id": v.session.ID,
			"zone":       tab.ZoneID,
			"timezone":   tab.TimeZoneID,
		}).Debug("Dropping stale assignment detail response.")
		return ErrStale
	}

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": v.session.ID,
			"zone":       tab.ZoneID,
			"timezone":   tab.TimeZoneID,
		}).Error("Assignment detail fetch failed.")
		v.subset, v.err = []models.Order{}, err
		return err
	}

	v.subset, v.err = restrict(detail, ids), nil
	return nil
}

// PruneSelection drops selected ids whose order is no longer pending route
// assignment in the order feed, in any tab. Nothing is dropped while the feed
// is in an error state. It returns the ids removed.
func (v *View) PruneSelection() []uint {
	snap := v.orders.Snapshot()
	if snap.Err != nil {
		return nil
	}
	pending := make(map[uint]bool)
	for _, o := range models.FilterByStatus(snap.Orders, models.OrderPendingRouteAssignment) {
		pending[o.ID] = true
	}
	var gone []uint
	for _, id := range v.sel.IDs() {
		if !pending[id] {
			gone = append(gone, id)
		}
	}
	v.sel.Remove(gone...)
	return gone
}

// pendingIDs filters the feed by status, zone and time-slot.
func (v *View) pendingIDs(tab Tab) []uint {
	var zoneName, tzName string
	if z, ok := v.ref.Zone(tab.ZoneID); ok {
		zoneName = z.Name
	}
	if tz, ok := v.ref.TimeZone(tab.TimeZoneID); ok {
		tzName = tz.Name
	}

	var ids []uint
	for _, o := range v.orders.ByStatus(models.OrderPendingRouteAssignment) {
		if o.Zone.Matches(tab.ZoneID, zoneName) && o.TimeZone.Matches(tab.TimeZoneID, tzName) {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// restrict keeps the detail rows that were asked for and are still pending,
// once each, in id order.
func restrict(detail []models.Order, ids []uint) []models.Order {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]models.Order, 0, len(ids))
	for _, o := range detail {
		if !want[o.ID] || o.LocalStatus != models.OrderPendingRouteAssignment {
			continue
		}
		want[o.ID] = false
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b models.Order) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Tab returns the tab currently shown.
func (v *View) Tab() Tab {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tab
}

// Rows returns every order of the current subset, with or without coordinates.
func (v *View) Rows() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Order(nil), v.subset...)
}

// Err is the error of the last detail fetch for the current tab.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Markers returns the orders of the subset that have valid coordinates.
func (v *View) Markers() []Marker {
	rows := v.Rows()
	out := make([]Marker, 0, len(rows))
	for _, o := range rows {
		if !o.FinalDestiny.HasCoordinates() {
			continue
		}
		out = append(out, Marker{
			OrderID:    o.ID,
			Number:     o.OrderNumber,
			Lat:        o.FinalDestiny.Latitude.Value,
			Lng:        o.FinalDestiny.Longitude.Value,
			Address:    o.FinalDestiny.Address,
			RouteOrder: o.RouteOrder,
			Selected:   v.sel.Has(o.ID),
		})
	}
	return out
}

// Toggle flips the selection of one order of the subset.
func (v *View) Toggle(id uint) (bool, error) {
	if !v.inSubset(id) {
		return false, &ValidationError{Field: "order", Message: "order is not pending assignment in this tab"}
	}
	return v.sel.Toggle(id), nil
}

// SelectBox selects every marker inside the dragged rectangle, edges
// included, merging with the existing selection. It returns the ids it hit.
func (v *View) SelectBox(a, b LatLng) []uint {
	box := NewBox(a, b)
	var hit []uint
	for _, m := range v.Markers() {
		if box.Contains(LatLng{Lat: m.Lat, Lng: m.Lng}) {
			hit = append(hit, m.OrderID)
		}
	}
	v.sel.Add(hit...)
	return hit
}

// SelectAll selects every order of the current subset.
func (v *View) SelectAll() {
	for _, o := range v.Rows() {
		v.sel.Add(o.ID)
	}
}

// DeselectAll empties the whole selection, including ids picked in other tabs.
func (v *View) DeselectAll() {
	v.sel.Clear()
}

// State snapshots the screen.
func (v *View) State() State {
	v.mu.Lock()
	tab, rows, err := v.tab, append([]models.Order(nil), v.subset...), v.err
	v.mu.Unlock()

	selected := v.sel.IDs()
	inTab := make(map[uint]bool, len(rows))
	for _, o := range rows {
		inTab[o.ID] = true
	}
	outside := 0
	for _, id := range selected {
		if !inTab[id] {
			outside++
		}
	}

	st := State{
		Tab:                tab,
		Orders:             rows,
		Markers:            v.Markers(),
		Selected:           selected,
		SelectedOutsideTab: outside,
	}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}

func (v *View) inSubset(id uint) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, o := range v.subset {
		if o.ID == id {
			return true
		}
	}
	return false
}
