// Package workspace owns the in-memory client state of every logged-in
// operator: feeds, reference data, the assignment view and live tracking.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"frost_dispatch/internal/archive"
	"frost_dispatch/internal/assignment"
	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/metrics"
	"frost_dispatch/internal/tracking"
)

// Backend is everything a workspace reads from and writes to.
type Backend interface {
	feeds.OrderSource
	feeds.RouteSource
	feeds.ReferenceSource
	assignment.DetailSource
	assignment.RouteWriter
}

// Deps are shared by every workspace of a registry.
type Deps struct {
	Backend      Backend
	Dialer       tracking.Dialer
	Archive      archive.Archive
	PollInterval time.Duration
	TTL          time.Duration
}

// Workspace is the state of one operator session.
type Workspace struct {
	Session   backend.Session
	Orders    *feeds.OrderFeed
	Routes    *feeds.RouteFeed
	Reference *feeds.Reference
	Counters  *feeds.Counters
	Selection *assignment.Selection
	View      *assignment.View
	Actions   *assignment.Actions
	Tracker   *tracking.Tracker

	ready     chan struct{}
	cancel    context.CancelFunc
	mu        sync.Mutex
	lastSeen  time.Time
	closeOnce sync.Once
}

func newWorkspace(d Deps, s backend.Session) *Workspace {
	w := &Workspace{Session: s, ready: make(chan struct{})}
	w.Orders = feeds.NewOrderFeed(d.Backend, s)
	w.Routes = feeds.NewRouteFeed(d.Backend, s)
	w.Reference = feeds.NewReference(d.Backend, s)
	w.Counters = feeds.NewCounters(w.Orders, w.Routes)
	w.Selection = assignment.NewSelection()
	w.View = assignment.NewView(w.Orders, w.Reference, d.Backend, s, w.Selection)
	w.Actions = assignment.NewActions(d.Backend, s, w.Selection, w.View, w.Reference, w.Counters, d.Archive)
	w.Tracker = tracking.NewTracker(d.Dialer, s, d.Archive)
	return w
}

// load fetches reference data and both feeds concurrently. Failures stay in
// the feeds' snapshots.
func (w *Workspace) load(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return w.Reference.Load(ctx) })
	g.Go(func() error { return w.Orders.Refresh(ctx) })
	g.Go(func() error { return w.Routes.Refresh(ctx) })
	if err := g.Wait(); err != nil {
		logrus.WithError(err).WithField("session_id", w.Session.ID).Warn("Workspace opened with incomplete data.")
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close stops polling and tears down live tracking.
func (w *Workspace) Close() {
	w.closeOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		w.Tracker.Close()
	})
}

// Registry holds one workspace per session id.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewRegistry(d Deps) *Registry {
	if d.Archive == nil {
		d.Archive = archive.Nop{}
	}
	return &Registry{
		deps:   d,
		now:    time.Now,
		spaces: make(map[string]*Workspace),
	}
}

// Acquire returns the workspace of s, opening and loading it when the session
// has none yet. Callers that arrive while the first load is running wait for
// it, or for ctx. The load itself is detached from ctx so an abandoned first
// request cannot leave the workspace half loaded.
func (r *Registry) Acquire(ctx context.Context, s backend.Session) *Workspace {
	r.mu.Lock()
	if w, ok := r.spaces[s.ID]; ok {
		r.mu.Unlock()
		w.touch(r.now())
		select {
		case <-w.ready:
		case <-ctx.Done():
		}
		return w
	}
	w := newWorkspace(r.deps, s)
	pollCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.touch(r.now())
	r.spaces[s.ID] = w
	n := len(r.spaces)
	r.mu.Unlock()

	metrics.ActiveWorkspaces.Set(float64(n))
	logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"admin_id":   s.AdminID,
	}).Info("Workspace opened.")

	w.load(context.WithoutCancel(ctx))
	close(w.ready)

	if r.deps.PollInterval > 0 {
		go w.Orders.Poll(pollCtx, r.deps.PollInterval)
	}
	return w
}

// Get returns the workspace of a session id without creating one.
func (r *Registry) Get(sessionID string) (*Workspace, bool) {
	r.mu.Lock()
	w, ok := r.spaces[sessionID]
	r.mu.Unlock()
	if ok {
		w.touch(r.now())
	}
	return w, ok
}

// Close removes and closes the workspace of a session id.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	w, ok := r.spaces[sessionID]
	delete(r.spaces, sessionID)
	n := len(r.spaces)
	r.mu.Unlock()
	if !ok {
		return false
	}
	w.Close()
	metrics.ActiveWorkspaces.Set(float64(n))
	logrus.WithField("session_id", sessionID).Info("Workspace closed.")
	return true
}

// Expire closes workspaces idle for longer than the TTL and returns how many it closed.
func (r *Registry) Expire() int {
	if r.deps.TTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.deps.TTL)

	r.mu.Lock()
	var idle []string
	for id, w := range r.spaces {
		if w.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.Close(id)
	}
	if len(idle) > 0 {
		logrus.WithField("count", len(idle)).Info("Expired idle workspaces.")
	}
	return len(idle)
}

// Run expires idle workspaces until ctx is done, then closes all of them.
func (r *Registry) Run(ctx context.Context) {
	every := r.deps.TTL / 4
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}

// CloseAll closes every workspace.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.spaces))
	for id := range r.spaces {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Close(id)
	}
}

// Len is the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}
