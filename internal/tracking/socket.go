// Package tracking follows drivers and cash boxes over the backend's socket
// namespaces and fans their updates out to browser connections.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"frost_dispatch/internal/backend"
)

// Backend socket namespaces.
const (
	DefaultNamespace       = "/"
	AdminLocationNamespace = "/admin-location"
)

// Backend socket events.
const (
	EventSubscribe             = "subscribe"
	EventUnsubscribe           = "unsubscribe"
	EventLocationUpdate        = "admin-location-update"
	EventLocationChanged       = "admin-location-changed"
	EventLocationStatusChanged = "admin-location-status-changed"
	EventCashBoxStatusChanged  = "cash-box-status-changed"
	EventOnlineCashBoxes       = "online-cash-boxes"
)

// Envelope is one frame on a backend socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn is the part of *websocket.Conn the socket clients use.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Dialer opens a socket on one backend namespace for a session.
type Dialer interface {
	Dial(ctx context.Context, namespace string, s backend.Session) (Conn, error)
}

// WSDialer dials the backend with gorilla/websocket. The session token goes
// in the same "token" header the REST client uses.
type WSDialer struct {
	BaseURL string
	Dialer  *websocket.Dialer
}

func NewWSDialer(baseURL string, handshakeTimeout time.Duration) *WSDialer {
	return &WSDialer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *WSDialer) Dial(ctx context.Context, namespace string, s backend.Session) (Conn, error) {
	u := d.BaseURL + namespace
	header := http.Header{}
	header.Set("token", s.Token)

	conn, resp, err := d.Dialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", namespace, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", namespace, err)
	}
	return conn, nil
}

func emit(conn Conn, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(Envelope{Event: event, Data: data})
}
