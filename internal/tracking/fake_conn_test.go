package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

var errClosed = errors.New("use of closed network connection")

type fakeConn struct {
	in      chan Envelope
	closeCh chan struct{}
	once    sync.Once

	mu      sync.Mutex
	written []Envelope
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan Envelope, 16), closeCh: make(chan struct{})}
}

func (c *fakeConn) ReadJSON(v any) error {
	select {
	case env, ok := <-c.in:
		if !ok {
			return io.EOF
		}
		*(v.(*Envelope)) = env
		return nil
	case <-c.closeCh:
		return errClosed
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closeCh:
		return errClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v.(Envelope))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closeCh) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sent() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.written...)
}

type fakeDialer struct {
	mu         sync.Mutex
	conns      []*fakeConn
	err        error
	namespaces []string
	tokens     []string
}

func (d *fakeDialer) Dial(_ context.Context, namespace string, s backend.Session) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.namespaces = append(d.namespaces, namespace)
	d.tokens = append(d.tokens, s.Token)
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.namespaces)
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type memArchive struct {
	mu   sync.Mutex
	recs []models.LocationHistory
}

func (a *memArchive) RecordLocation(_ context.Context, rec models.LocationHistory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
}

func (a *memArchive) all() []models.LocationHistory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.LocationHistory(nil), a.recs...)
}

func frame(t *testing.T, event string, payload any) Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Event: event, Data: data}
}

var testSession = backend.Session{ID: "sid", AdminID: 1, Token: "tok"}
