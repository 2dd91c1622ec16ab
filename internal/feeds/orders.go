// Package feeds holds the per-session lists the dashboard renders: orders,
// routes, reference data and the sidebar counters derived from them.
// Every list is replaced wholesale on refresh; nothing is patched locally.
package feeds

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

// OrderSource is the slice of the backend client the order feed needs.
type OrderSource interface {
	OrdersByStates(ctx context.Context, s backend.Session, states []models.OrderStatus) ([]models.Order, error)
}

// OrderSnapshot is an immutable view of the feed. Err is set when the last
// refresh failed, so callers can tell "no orders" from "could not load".
type OrderSnapshot struct {
	Orders    []models.Order
	Err       error
	FetchedAt time.Time
}

// OrderFeed holds the orders relevant to one admin session.
type OrderFeed struct {
	src     OrderSource
	session backend.Session
	states  []models.OrderStatus

	mu      sync.RWMutex
	snap    OrderSnapshot
	started uint64
	applied uint64
}

// NewOrderFeed returns an empty feed over the dashboard statuses.
func NewOrderFeed(src OrderSource, s backend.Session) *OrderFeed {
	return &OrderFeed{
		src:     src,
		session: s,
		states:  models.DashboardOrderStates,
		snap:    OrderSnapshot{Orders: []models.Order{}},
	}
}

// Refresh refetches every order and replaces the list. On failure the list
// becomes empty and the error is kept in the snapshot.
func (f *OrderFeed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.started++
	ticket := f.started
	f.mu.Unlock()

	orders, err := f.src.OrdersByStates(ctx, f.session, f.states)
	if err != nil {
		logrus.WithError(err).WithField("session_id", f.session.ID).Error("Order feed refresh failed.")
		orders = []models.Order{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// A refresh that started later already landed; this answer is stale.
	if ticket < f.applied {
		return err
	}
	f.applied = ticket
	f.snap = OrderSnapshot{Orders: orders, Err: err, FetchedAt: time.Now()}
	return err
}

// Snapshot returns a copy of the current state.
func (f *OrderFeed) Snapshot() OrderSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := f.snap
	out.Orders = append([]models.Order(nil), f.snap.Orders...)
	return out
}

// Orders returns a copy of the current list.
func (f *OrderFeed) Orders() []models.Order {
	return f.Snapshot().Orders
}

// ByStatus returns the orders in any of the given statuses.
func (f *OrderFeed) ByStatus(statuses ...models.OrderStatus) []models.Order {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return models.FilterByStatus(f.snap.Orders, statuses...)
}

// Poll refreshes the feed every interval until ctx is done.
func (f *OrderFeed) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = f.Refresh(ctx)
		}
	}
}
