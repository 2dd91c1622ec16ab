package tracking

import (
	"context"
	"sync"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

// Tracker shares overlays and the cash-box monitor between the browser
// sockets of one session. Each watcher holds a reference; the underlying
// subscription closes when the last one is released.
type Tracker struct {
	dialer  Dialer
	session backend.Session
	archive LocationArchive
	hub     *Hub

	mu       sync.Mutex
	overlays map[uint]*sharedOverlay
	cash     *CashBoxMonitor
	cashRefs int
	closed   bool
}

// sharedOverlay is one route's overlay. ready is closed once the first
// watcher's Open returns; err is its result.
type sharedOverlay struct {
	ov    *Overlay
	refs  int
	ready chan struct{}
	err   error
}

func NewTracker(d Dialer, s backend.Session, archive LocationArchive) *Tracker {
	return &Tracker{
		dialer:   d,
		session:  s,
		archive:  archive,
		hub:      NewHub(),
		overlays: make(map[uint]*sharedOverlay),
	}
}

// Hub is where browser sockets subscribe.
func (t *Tracker) Hub() *Hub { return t.hub }

// Watch opens, or joins, the overlay of route. A watcher that joins while
// the overlay is still opening waits for the outcome. The returned release
// func must be called once.
func (t *Tracker) Watch(ctx context.Context, route models.Route) (*Overlay, func(), error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, nil, context.Canceled
	}
	if so, ok := t.overlays[route.ID]; ok {
		so.refs++
		t.mu.Unlock()
		release := t.releaser(route.ID, so)
		select {
		case <-so.ready:
		case <-ctx.Done():
			release()
			return nil, nil, ctx.Err()
		}
		if so.err != nil {
			return nil, nil, so.err
		}
		return so.ov, release, nil
	}
	topic := RouteTopic(route.ID)
	ov := NewOverlay(t.dialer, t.session, t.archive, func(s Snapshot) {
		t.hub.Publish(Message{Topic: topic, Event: "position", Data: s})
	})
	so := &sharedOverlay{ov: ov, refs: 1, ready: make(chan struct{})}
	t.overlays[route.ID] = so
	t.mu.Unlock()

	if err := ov.Open(ctx, route); err != nil {
		t.mu.Lock()
		if t.overlays[route.ID] == so {
			delete(t.overlays, route.ID)
		}
		so.err = err
		t.mu.Unlock()
		close(so.ready)
		ov.Close()
		return nil, nil, err
	}
	close(so.ready)
	return ov, t.releaser(route.ID, so), nil
}

func (t *Tracker) releaser(routeID uint, so *sharedOverlay) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			so.refs--
			if so.refs > 0 {
				t.mu.Unlock()
				return
			}
			if t.overlays[routeID] == so {
				delete(t.overlays, routeID)
			}
			t.mu.Unlock()
			so.ov.Close()
		})
	}
}

// WatchCashBoxes starts, or joins, the cash-box monitor.
func (t *Tracker) WatchCashBoxes(ctx context.Context) (*CashBoxMonitor, func(), error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, nil, context.Canceled
	}
	t.cashRefs++
	m := t.cash
	start := m == nil
	if start {
		m = NewCashBoxMonitor(t.dialer, t.session, func(boxes []models.CashBox) {
			t.hub.Publish(Message{Topic: CashBoxTopic, Event: "cash-boxes", Data: boxes})
		})
		t.cash = m
	}
	t.mu.Unlock()

	if start {
		m.Start(ctx)
	}

	var once sync.Once
	return m, func() {
		once.Do(func() {
			t.mu.Lock()
			t.cashRefs--
			var stop *CashBoxMonitor
			if t.cashRefs == 0 && t.cash == m {
				stop, t.cash = m, nil
			}
			t.mu.Unlock()
			if stop != nil {
				stop.Close()
			}
		})
	}, nil
}

// Watching returns the number of routes with an open overlay.
func (t *Tracker) Watching() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.overlays)
}

// Close tears down every overlay, the monitor and the hub.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	overlays := t.overlays
	t.overlays = make(map[uint]*sharedOverlay)
	cash := t.cash
	t.cash = nil
	t.mu.Unlock()

	for _, so := range overlays {
		so.ov.Close()
	}
	if cash != nil {
		cash.Close()
	}
	t.hub.Close()
}
