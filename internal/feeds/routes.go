package feeds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

// RouteSource is the slice of the backend client the route feed needs.
type RouteSource interface {
	AllRoutesByStatus(ctx context.Context, s backend.Session, status models.RouteStatus, limit int) ([]models.Route, error)
}

const routePageSize = 100

// RouteSnapshot holds the open routes (created and active) and the closed
// routes still pending settlement.
type RouteSnapshot struct {
	Routes            []models.Route
	PendingSettlement []models.Route
	Err               error
	FetchedAt         time.Time
}

// RouteFeed holds the open routes of one admin session.
type RouteFeed struct {
	src     RouteSource
	session backend.Session

	mu      sync.RWMutex
	snap    RouteSnapshot
	started uint64
	applied uint64
}

func NewRouteFeed(src RouteSource, s backend.Session) *RouteFeed {
	return &RouteFeed{
		src:     src,
		session: s,
		snap:    RouteSnapshot{Routes: []models.Route{}, PendingSettlement: []models.Route{}},
	}
}

// Refresh refetches created, active and closed routes. Any failure leaves the
// feed empty; there is no partial state.
func (f *RouteFeed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.started++
	ticket := f.started
	f.mu.Unlock()

	snap, err := f.fetch(ctx)
	if err != nil {
		logrus.WithError(err).WithField("session_id", f.session.ID).Error("Route feed refresh failed.")
		snap = RouteSnapshot{Routes: []models.Route{}, PendingSettlement: []models.Route{}, Err: err}
	}
	snap.FetchedAt = time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket < f.applied {
		return err
	}
	f.applied = ticket
	f.snap = snap
	return err
}

func (f *RouteFeed) fetch(ctx context.Context) (RouteSnapshot, error) {
	var open []models.Route
	for _, st := range []models.RouteStatus{models.RouteActive, models.RouteCreated} {
		rs, err := f.src.AllRoutesByStatus(ctx, f.session, st, routePageSize)
		if err != nil {
			return RouteSnapshot{}, fmt.Errorf("routes %s: %w", st, err)
		}
		open = append(open, rs...)
	}

	closed, err := f.src.AllRoutesByStatus(ctx, f.session, models.RouteClosed, routePageSize)
	if err != nil {
		return RouteSnapshot{}, fmt.Errorf("routes %s: %w", models.RouteClosed, err)
	}
	pending := make([]models.Route, 0, len(closed))
	for _, r := range closed {
		if r.PendingSettlement() {
			pending = append(pending, r)
		}
	}

	if open == nil {
		open = []models.Route{}
	}
	return RouteSnapshot{Routes: open, PendingSettlement: pending}, nil
}

// Snapshot returns a copy of the current state.
func (f *RouteFeed) Snapshot() RouteSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := f.snap
	out.Routes = append([]models.Route(nil), f.snap.Routes...)
	out.PendingSettlement = append([]models.Route(nil), f.snap.PendingSettlement...)
	return out
}

// ByStatus returns open routes in the given status.
func (f *RouteFeed) ByStatus(status models.RouteStatus) []models.Route {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []models.Route
	for _, r := range f.snap.Routes {
		if r.LocalStatus == status {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the open route with id.
func (f *RouteFeed) Find(id uint) (models.Route, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, r := range f.snap.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return models.Route{}, false
}
