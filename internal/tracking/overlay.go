package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/metrics"
	"frost_dispatch/internal/models"
)

// ErrNoDriver is returned when a route has no driver to follow.
var ErrNoDriver = errors.New("route has no assigned driver")

// LocationArchive stores accepted driver positions.
type LocationArchive interface {
	RecordLocation(ctx context.Context, rec models.LocationHistory)
}

type nopArchive struct{}

func (nopArchive) RecordLocation(context.Context, models.LocationHistory) {}

// Snapshot is what the tracking dialog renders: the last known driver
// position and whether a live subscription is running.
type Snapshot struct {
	RouteID  uint                   `json:"route_id"`
	AdminID  uint                   `json:"admin_id"`
	Location *models.DriverLocation `json:"location"`
	Live     bool                   `json:"live"`
}

// Overlay follows the driver of one route on the /admin-location namespace.
type Overlay struct {
	dialer  Dialer
	session backend.Session
	archive LocationArchive
	publish func(Snapshot)

	mu      sync.RWMutex
	routeID uint
	adminID uint
	pos     *models.DriverLocation
	mark    models.Watermark
	live    bool
	conn    Conn

	done      chan struct{}
	closeOnce sync.Once
}

// NewOverlay builds an overlay. archive and publish may be nil.
func NewOverlay(d Dialer, s backend.Session, archive LocationArchive, publish func(Snapshot)) *Overlay {
	if archive == nil {
		archive = nopArchive{}
	}
	if publish == nil {
		publish = func(Snapshot) {}
	}
	return &Overlay{
		dialer:  d,
		session: s,
		archive: archive,
		publish: publish,
		done:    make(chan struct{}),
	}
}

// Open shows the driver position carried by the route right away, then
// subscribes to live updates for the driver. A connect failure is logged and
// leaves the overlay without live data; it is not returned.
func (o *Overlay) Open(ctx context.Context, route models.Route) error {
	if route.Delivery == nil || route.Delivery.ID == 0 {
		return ErrNoDriver
	}
	d := route.Delivery

	o.mu.Lock()
	o.routeID, o.adminID = route.ID, d.ID
	if d.Latitude.Valid && d.Longitude.Valid {
		o.pos = &models.DriverLocation{
			AdminID:  d.ID,
			Lat:      d.Latitude.Value,
			Lng:      d.Longitude.Value,
			IsOnline: d.IsOnline,
		}
	}
	o.mu.Unlock()
	o.publish(o.Snapshot())

	log := logrus.WithFields(logrus.Fields{
		"session_id": o.session.ID,
		"route_id":   route.ID,
		"admin_id":   d.ID,
	})

	conn, err := o.dialer.Dial(ctx, AdminLocationNamespace, o.session)
	if err != nil {
		metrics.TrackingEvents.WithLabelValues("connect", "failed").Inc()
		log.WithError(err).Warn("Live tracking unavailable, showing last known position.")
		return nil
	}
	if err := emit(conn, EventSubscribe, map[string]uint{"adminId": d.ID}); err != nil {
		metrics.TrackingEvents.WithLabelValues(EventSubscribe, "failed").Inc()
		log.WithError(err).Warn("Subscribing to driver location failed.")
		conn.Close()
		return nil
	}

	o.mu.Lock()
	select {
	case <-o.done:
		o.mu.Unlock()
		conn.Close()
		return nil
	default:
	}
	o.conn, o.live = conn, true
	o.mu.Unlock()

	log.Info("Live tracking subscribed.")
	o.publish(o.Snapshot())
	go o.read(conn)
	return nil
}

func (o *Overlay) read(conn Conn) {
	defer func() {
		o.mu.Lock()
		o.live = false
		o.mu.Unlock()
		o.publish(o.Snapshot())
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-o.done:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logrus.WithField("session_id", o.session.ID).Info("Backend closed the location socket.")
				} else {
					logrus.WithError(err).WithField("session_id", o.session.ID).Warn("Reading location socket failed.")
				}
			}
			return
		}
		o.handle(env)
	}
}

func (o *Overlay) handle(env Envelope) {
	switch env.Event {
	case EventLocationUpdate, EventLocationChanged, EventLocationStatusChanged:
	default:
		metrics.TrackingEvents.WithLabelValues(env.Event, "ignored").Inc()
		return
	}

	var loc models.DriverLocation
	if err := json.Unmarshal(env.Data, &loc); err != nil {
		metrics.TrackingEvents.WithLabelValues(env.Event, "invalid").Inc()
		logrus.WithError(err).WithField("event", env.Event).Warn("Discarding malformed location event.")
		return
	}

	o.mu.Lock()
	if loc.AdminID != 0 && loc.AdminID != o.adminID {
		o.mu.Unlock()
		metrics.TrackingEvents.WithLabelValues(env.Event, "foreign").Inc()
		return
	}
	if !o.mark.Admits(loc) {
		o.mu.Unlock()
		metrics.TrackingEvents.WithLabelValues(env.Event, "discarded").Inc()
		logrus.WithFields(logrus.Fields{
			"admin_id": o.adminID,
			"seq":      loc.Seq,
		}).Debug("Discarding out-of-order location event.")
		return
	}

	loc.AdminID = o.adminID
	if env.Event == EventLocationStatusChanged && o.pos != nil {
		// status events carry no position
		loc.Lat, loc.Lng = o.pos.Lat, o.pos.Lng
	}
	o.mark.Advance(loc)
	pos := loc
	o.pos = &pos
	routeID := o.routeID
	o.mu.Unlock()

	metrics.TrackingEvents.WithLabelValues(env.Event, "accepted").Inc()

	ts := loc.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	o.archive.RecordLocation(context.Background(), models.LocationHistory{
		AdminID:   loc.AdminID,
		RouteID:   routeID,
		Latitude:  loc.Lat,
		Longitude: loc.Lng,
		IsOnline:  loc.IsOnline,
		Seq:       loc.Seq,
		Timestamp: ts,
	})
	o.publish(o.Snapshot())
}

// Snapshot returns the current position and live flag.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := Snapshot{RouteID: o.routeID, AdminID: o.adminID, Live: o.live}
	if o.pos != nil {
		p := *o.pos
		snap.Location = &p
	}
	return snap
}

// Done is closed once the overlay is closed.
func (o *Overlay) Done() <-chan struct{} { return o.done }

// Close unsubscribes and disconnects. It is safe to call more than once.
func (o *Overlay) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		close(o.done)
		conn, adminID := o.conn, o.adminID
		o.conn = nil
		o.mu.Unlock()

		if conn == nil {
			return
		}
		if err := emit(conn, EventUnsubscribe, map[string]uint{"adminId": adminID}); err != nil {
			logrus.WithError(err).WithField("admin_id", adminID).Debug("Unsubscribe not delivered.")
		}
		if err := conn.Close(); err != nil {
			logrus.WithError(err).WithField("admin_id", adminID).Debug("Closing location socket failed.")
		}
		logrus.WithFields(logrus.Fields{
			"session_id": o.session.ID,
			"admin_id":   adminID,
		}).Info("Live tracking closed.")
	})
}
