package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/models"
)

// RouteWriter is the slice of the backend client that mutates routes.
type RouteWriter interface {
	AssignOrders(ctx context.Context, s backend.Session, routeID uint, orderIDs []uint) error
	CreateRoute(ctx context.Context, s backend.Session, in backend.NewRoute) (models.Route, error)
	CancelRoute(ctx context.Context, s backend.Session, routeID uint) error
	RemoveOrderFromRoute(ctx context.Context, s backend.Session, routeID, orderID uint) error
	UpdateRoute(ctx context.Context, s backend.Session, routeID uint, patch backend.RoutePatch) error
}

// Recorder receives an audit record for every route mutation attempt.
type Recorder interface {
	RecordAssignment(ctx context.Context, rec models.AssignmentRecord)
}

type nopRecorder struct{}

func (nopRecorder) RecordAssignment(context.Context, models.AssignmentRecord) {}

// CreateRouteInput is what the create-route dialog submits.
type CreateRouteInput struct {
	ZoneID         uint   `json:"zone" validate:"required"`
	TimeZoneID     uint   `json:"timezone" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Observations   string `json:"observations"`
	Delivery       *uint  `json:"delivery"`
	AssignSelected bool   `json:"assign_selected"`
}

// Actions issues route mutations and the refresh fan-out that follows them.
// Nothing is patched locally: every success refetches the feeds.
type Actions struct {
	writer   RouteWriter
	session  backend.Session
	sel      *Selection
	view     *View
	ref      *feeds.Reference
	counters *feeds.Counters
	rec      Recorder
}

func NewActions(
	w RouteWriter,
	s backend.Session,
	sel *Selection,
	view *View,
	ref *feeds.Reference,
	counters *feeds.Counters,
	rec Recorder,
) *Actions {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Actions{writer: w, session: s, sel: sel, view: view, ref: ref, counters: counters, rec: rec}
}

// CanAssign mirrors the enabled state of the assign button.
func (a *Actions) CanAssign(routeID uint) bool {
	return routeID != 0 && a.sel.Len() > 0
}

// AssignSelected assigns the whole selection to routeID.
func (a *Actions) AssignSelected(ctx context.Context, routeID uint) error {
	return a.AssignToRoute(ctx, routeID, a.sel.IDs())
}

// AssignToRoute associates orderIDs with routeID in a single PATCH. On
// success the selection is cleared and every feed refetched; on failure the
// selection is kept so the operator can retry.
func (a *Actions) AssignToRoute(ctx context.Context, routeID uint, orderIDs []uint) error {
	if routeID == 0 {
		return &ValidationError{Field: "route", Message: "select a route"}
	}
	if len(orderIDs) == 0 {
		return &ValidationError{Field: "orders", Message: "select at least one order"}
	}

	err := a.writer.AssignOrders(ctx, a.session, routeID, orderIDs)
	a.record(ctx, "assign", routeID, orderIDs, err)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": a.session.ID,
			"route_id":   routeID,
			"orders":     len(orderIDs),
		}).Error("Assigning orders to route failed.")
		return fmt.Errorf("assign orders to route %d: %w", routeID, err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": a.session.ID,
		"route_id":   routeID,
		"orders":     len(orderIDs),
	}).Info("Orders assigned to route.")

	a.sel.Clear()
	a.refresh(ctx)
	return nil
}

// CreateRoute validates the dialog locally, resolves the scheduled instant
// and creates the route. With AssignSelected the current selection is then
// assigned to the new route before the single refresh fan-out.
func (a *Actions) CreateRoute(ctx context.Context, in CreateRouteInput) (models.Route, error) {
	if err := validateStruct(in); err != nil {
		return models.Route{}, err
	}
	if _, ok := a.ref.Zone(in.ZoneID); !ok {
		return models.Route{}, &ValidationError{Field: "zone", Message: "unknown zone"}
	}
	tz, ok := a.ref.TimeZone(in.TimeZoneID)
	if !ok {
		return models.Route{}, &ValidationError{Field: "timezone", Message: "unknown time-slot"}
	}
	if in.AssignSelected && a.sel.Len() == 0 {
		return models.Route{}, &ValidationError{Field: "orders", Message: "select at least one order"}
	}

	when, err := ScheduledDate(in.Date, tz)
	if err != nil {
		return models.Route{}, &ValidationError{Field: "date", Message: err.Error()}
	}

	route, err := a.writer.CreateRoute(ctx, a.session, backend.NewRoute{
		Zone:          in.ZoneID,
		TimeZone:      in.TimeZoneID,
		ScheduledDate: when,
		Observations:  in.Observations,
		Delivery:      in.Delivery,
	})
	a.record(ctx, "create", route.ID, nil, err)
	if err != nil {
		logrus.WithError(err).WithField("session_id", a.session.ID).Error("Creating route failed.")
		return models.Route{}, fmt.Errorf("create route: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":     a.session.ID,
		"route_id":       route.ID,
		"scheduled_date": when.Format(time.RFC3339),
	}).Info("Route created.")

	if in.AssignSelected {
		ids := a.sel.IDs()
		aerr := a.writer.AssignOrders(ctx, a.session, route.ID, ids)
		a.record(ctx, "assign", route.ID, ids, aerr)
		if aerr != nil {
			a.refresh(ctx)
			return route, fmt.Errorf("assign orders to new route %d: %w", route.ID, aerr)
		}
		a.sel.Clear()
	}

	a.refresh(ctx)
	return route, nil
}

// CancelRoute cancels a route and refetches.
func (a *Actions) CancelRoute(ctx context.Context, routeID uint) error {
	if routeID == 0 {
		return &ValidationError{Field: "route", Message: "select a route"}
	}
	err := a.writer.CancelRoute(ctx, a.session, routeID)
	a.record(ctx, "cancel", routeID, nil, err)
	if err != nil {
		return fmt.Errorf("cancel route %d: %w", routeID, err)
	}
	a.refresh(ctx)
	return nil
}

// RemoveOrder takes one order out of a route and refetches.
func (a *Actions) RemoveOrder(ctx context.Context, routeID, orderID uint) error {
	if routeID == 0 || orderID == 0 {
		return &ValidationError{Field: "order", Message: "route and order are required"}
	}
	err := a.writer.RemoveOrderFromRoute(ctx, a.session, routeID, orderID)
	a.record(ctx, "remove_order", routeID, []uint{orderID}, err)
	if err != nil {
		return fmt.Errorf("remove order %d from route %d: %w", orderID, routeID, err)
	}
	a.refresh(ctx)
	return nil
}

// UpdateRoute changes the driver, schedule or name of a route and refetches.
func (a *Actions) UpdateRoute(ctx context.Context, routeID uint, patch backend.RoutePatch) error {
	if routeID == 0 {
		return &ValidationError{Field: "route", Message: "select a route"}
	}
	if patch.Delivery == nil && patch.ScheduledDate == nil && patch.Name == nil && len(patch.Orders) == 0 {
		return &ValidationError{Message: "nothing to update"}
	}
	err := a.writer.UpdateRoute(ctx, a.session, routeID, patch)
	a.record(ctx, "update", routeID, patch.Orders, err)
	if err != nil {
		return fmt.Errorf("update route %d: %w", routeID, err)
	}
	a.refresh(ctx)
	return nil
}

// Refresh is the fan-out that follows any mutation made outside Actions,
// such as cancelling or correcting an order.
func (a *Actions) Refresh(ctx context.Context) feeds.Counts {
	return a.refresh(ctx)
}

// refresh refetches the feeds, recomputes counters, drops selected orders
// that stopped being pending and re-derives the view.
func (a *Actions) refresh(ctx context.Context) feeds.Counts {
	counts := a.counters.RefreshCounts(ctx)
	if gone := a.view.PruneSelection(); len(gone) > 0 {
		logrus.WithFields(logrus.Fields{
			"session_id": a.session.ID,
			"orders":     gone,
		}).Info("Deselected orders that are no longer pending assignment.")
	}
	if err := a.view.Reload(ctx); err != nil && err != ErrStale {
		logrus.WithError(err).WithField("session_id", a.session.ID).Warn("Assignment view reload failed after mutation.")
	}
	return counts
}

func (a *Actions) record(ctx context.Context, action string, routeID uint, orderIDs []uint, err error) {
	rec := models.AssignmentRecord{
		SessionID: a.session.ID,
		AdminID:   a.session.AdminID,
		RouteID:   routeID,
		Action:    action,
		Succeeded: err == nil,
	}
	for _, id := range orderIDs {
		rec.OrderIDs = append(rec.OrderIDs, int64(id))
	}
	if err != nil {
		rec.Error = err.Error()
	}
	a.rec.RecordAssignment(ctx, rec)
}
