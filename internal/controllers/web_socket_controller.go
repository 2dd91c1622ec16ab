package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/tracking"
)

const wsWriteWait = 10 * time.Second

// TrackRoute streams the driver position of a route to the browser for the
// lifetime of the socket. The route's stored position is sent first.
func (h *Handler) TrackRoute(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "routeId")
	if !ok {
		return
	}

	route, found := ws.Routes.Find(id)
	if !found || route.Delivery == nil {
		fetched, err := h.api.Route(c.Request.Context(), s, id)
		if err != nil {
			respondError(c, err)
			return
		}
		route = fetched
	}

	sub := ws.Tracker.Hub().Subscribe(tracking.RouteTopic(id))
	defer ws.Tracker.Hub().Unsubscribe(sub)

	ov, release, err := ws.Tracker.Watch(c.Request.Context(), route)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"route_id":   id,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	})
	log.Info("Tracking WebSocket connection established.")

	initial := tracking.Message{Topic: sub.Topic(), Event: "position", Data: ov.Snapshot()}
	pump(conn, sub, initial, log)
	log.Info("Tracking WebSocket connection closed.")
}

// TrackCashBoxes streams cash-box statuses to the browser.
func (h *Handler) TrackCashBoxes(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}

	sub := ws.Tracker.Hub().Subscribe(tracking.CashBoxTopic)
	defer ws.Tracker.Hub().Unsubscribe(sub)

	mon, release, err := ws.Tracker.WatchCashBoxes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	})
	log.Info("Cash-box WebSocket connection established.")

	initial := tracking.Message{Topic: sub.Topic(), Event: "cash-boxes", Data: gin.H{"boxes": mon.Boxes(), "live": mon.Live()}}
	pump(conn, sub, initial, log)
	log.Info("Cash-box WebSocket connection closed.")
}

// pump owns every write to conn: the initial message, then whatever the hub
// delivers, until the browser goes away or the subscription is closed.
func pump(conn *websocket.Conn, sub *tracking.Subscriber, initial tracking.Message, log *logrus.Entry) {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Debug("Browser socket read ended.")
				}
				return
			}
		}
	}()

	write := func(msg tracking.Message) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).Warn("Failed to send message to browser.")
			return false
		}
		return true
	}

	if !write(initial) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case msg, ok := <-sub.C():
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if !write(msg) {
				return
			}
		}
	}
}
