package tracking

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// CashBoxTopic is the hub topic of cash-box updates.
const CashBoxTopic = "cash-boxes"

// RouteTopic is the hub topic of the driver position of one route.
func RouteTopic(routeID uint) string {
	return fmt.Sprintf("route:%d", routeID)
}

// Message is what browser sockets receive.
type Message struct {
	Topic string `json:"-"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Subscriber is one browser socket listening on a topic. The socket handler
// owns the connection and drains C; the hub never writes to the socket.
type Subscriber struct {
	topic string
	ch    chan Message
}

// C is closed when the subscriber is removed from the hub.
func (s *Subscriber) C() <-chan Message { return s.ch }

func (s *Subscriber) Topic() string { return s.topic }

// Hub fans messages out to subscribers by topic.
type Hub struct {
	subs      map[string]map[*Subscriber]bool
	broadcast chan Message
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

func NewHub() *Hub {
	h := &Hub{
		subs:      make(map[string]map[*Subscriber]bool),
		broadcast: make(chan Message, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subs[msg.Topic] {
				select {
				case sub.ch <- msg:
				default:
					logrus.WithField("topic", msg.Topic).Warn("Subscriber is not keeping up, dropping message.")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe registers a new subscriber on topic.
func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{topic: topic, ch: make(chan Message, 16)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[*Subscriber]bool)
	}
	h.subs[topic][sub] = true
	logrus.WithFields(logrus.Fields{
		"topic":   topic,
		"sub_ptr": fmt.Sprintf("%p", sub),
	}).Debug("Subscriber registered with hub.")
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is harmless.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[sub.topic]
	if !ok || !subs[sub] {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.subs, sub.topic)
	}
	logrus.WithFields(logrus.Fields{
		"topic":   sub.topic,
		"sub_ptr": fmt.Sprintf("%p", sub),
	}).Debug("Subscriber removed from hub.")
}

// Subscribers returns the number of subscribers on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

// Publish queues msg for fan-out. It never blocks; a full queue drops msg.
func (h *Hub) Publish(msg Message) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- msg:
	default:
		logrus.WithField("topic", msg.Topic).Warn("Hub broadcast queue full, dropping message.")
	}
}

// Close stops the fan-out and closes every subscriber.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for topic, subs := range h.subs {
			for sub := range subs {
				close(sub.ch)
			}
			delete(h.subs, topic)
		}
	})
}
