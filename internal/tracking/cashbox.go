package tracking

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/metrics"
	"frost_dispatch/internal/models"
)

// CashBoxMonitor keeps the cash-box statuses pushed on the default namespace.
type CashBoxMonitor struct {
	dialer  Dialer
	session backend.Session
	publish func([]models.CashBox)

	mu    sync.RWMutex
	boxes map[uint]models.CashBox
	live  bool
	conn  Conn

	done      chan struct{}
	closeOnce sync.Once
}

// NewCashBoxMonitor builds a monitor; publish receives the full list after every change.
func NewCashBoxMonitor(d Dialer, s backend.Session, publish func([]models.CashBox)) *CashBoxMonitor {
	if publish == nil {
		publish = func([]models.CashBox) {}
	}
	return &CashBoxMonitor{
		dialer:  d,
		session: s,
		publish: publish,
		boxes:   make(map[uint]models.CashBox),
		done:    make(chan struct{}),
	}
}

// Start connects to the default namespace. A connect failure is logged only.
func (m *CashBoxMonitor) Start(ctx context.Context) {
	conn, err := m.dialer.Dial(ctx, DefaultNamespace, m.session)
	if err != nil {
		metrics.TrackingEvents.WithLabelValues("connect", "failed").Inc()
		logrus.WithError(err).WithField("session_id", m.session.ID).Warn("Cash-box monitor unavailable.")
		return
	}

	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		conn.Close()
		return
	default:
	}
	m.conn, m.live = conn, true
	m.mu.Unlock()

	go m.read(conn)
}

func (m *CashBoxMonitor) read(conn Conn) {
	defer func() {
		m.mu.Lock()
		m.live = false
		m.mu.Unlock()
	}()
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-m.done:
			default:
				logrus.WithError(err).WithField("session_id", m.session.ID).Warn("Cash-box socket closed.")
			}
			return
		}
		m.handle(env)
	}
}

func (m *CashBoxMonitor) handle(env Envelope) {
	switch env.Event {
	case EventCashBoxStatusChanged:
		var box models.CashBox
		if err := json.Unmarshal(env.Data, &box); err != nil || box.ID == 0 {
			metrics.TrackingEvents.WithLabelValues(env.Event, "invalid").Inc()
			return
		}
		m.mu.Lock()
		m.boxes[box.ID] = box
		m.mu.Unlock()
	case EventOnlineCashBoxes:
		var boxes []models.CashBox
		if err := json.Unmarshal(env.Data, &boxes); err != nil {
			metrics.TrackingEvents.WithLabelValues(env.Event, "invalid").Inc()
			return
		}
		m.mu.Lock()
		for id, box := range m.boxes {
			box.IsOnline = false
			m.boxes[id] = box
		}
		for _, box := range boxes {
			box.IsOnline = true
			m.boxes[box.ID] = box
		}
		m.mu.Unlock()
	default:
		metrics.TrackingEvents.WithLabelValues(env.Event, "ignored").Inc()
		return
	}
	metrics.TrackingEvents.WithLabelValues(env.Event, "accepted").Inc()
	m.publish(m.Boxes())
}

// Boxes returns the known cash boxes ordered by id.
func (m *CashBoxMonitor) Boxes() []models.CashBox {
	m.mu.RLock()
	out := make([]models.CashBox, 0, len(m.boxes))
	for _, b := range m.boxes {
		out = append(out, b)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.CashBox) int { return int(a.ID) - int(b.ID) })
	return out
}

// Live reports whether the socket is connected.
func (m *CashBoxMonitor) Live() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// Close disconnects. It is safe to call more than once.
func (m *CashBoxMonitor) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		close(m.done)
		conn := m.conn
		m.conn = nil
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}
