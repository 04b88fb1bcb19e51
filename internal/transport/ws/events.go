// Package ws streams authentication events to connected administrators.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quill-server-go/internal/domain/eventbus"
	"quill-server-go/internal/domain/session/model"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// envelope is the wire frame pushed to subscribers.
type envelope struct {
	Topic string             `json:"topic"`
	Event eventbus.AuthEvent `json:"event"`
}

// EventHub fans authentication events out to websocket subscribers. Slow
// subscribers are dropped rather than allowed to stall the bus.
type EventHub struct {
	logger   model.Logger
	bus      *eventbus.Bus
	upgrader websocket.Upgrader
	clients  sync.Map // map[string]chan envelope
	handlers map[string]func(eventbus.AuthEvent)
}

// NewEventHub subscribes to the session event topics and returns the hub.
func NewEventHub(bus *eventbus.Bus, logger model.Logger) (*EventHub, error) {
	h := &EventHub{
		logger: logger,
		bus:    bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(eventbus.AuthEvent)),
	}

	topics := []string{
		eventbus.EventUserLoggedIn,
		eventbus.EventUserLoggedOut,
		eventbus.EventTokenRotated,
		eventbus.EventTokensSwept,
	}
	for _, topic := range topics {
		topic := topic
		handler := func(event eventbus.AuthEvent) {
			h.broadcast(topic, event)
		}
		if err := bus.SubscribeAsync(topic, handler); err != nil {
			return nil, err
		}
		h.handlers[topic] = handler
	}
	return h, nil
}

func (h *EventHub) broadcast(topic string, event eventbus.AuthEvent) {
	frame := envelope{Topic: topic, Event: event}
	h.clients.Range(func(key, value any) bool {
		ch := value.(chan envelope)
		select {
		case ch <- frame:
		default:
			// Backpressure: the write loop notices the closed channel and
			// tears the connection down.
			if value, loaded := h.clients.LoadAndDelete(key); loaded {
				close(value.(chan envelope))
			}
		}
		return true
	})
}

// Handler upgrades the request and streams events until the client leaves.
// Mount behind the admin guards.
func (h *EventHub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("event stream upgrade failed: %v", err)
			return
		}

		id := uuid.New().String()
		ch := make(chan envelope, sendBuffer)
		h.clients.Store(id, ch)
		h.logger.Debug("event stream client %s connected", id)

		go h.writeLoop(id, conn, ch)

		// Reads are discarded; the loop exists to observe disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.drop(id)
		conn.Close()
	}
}

func (h *EventHub) writeLoop(id string, conn *websocket.Conn, ch chan envelope) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "too slow"),
					time.Now().Add(writeTimeout))
				conn.Close()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				h.drop(id)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(id)
				conn.Close()
				return
			}
		}
	}
}

func (h *EventHub) drop(id string) {
	if value, loaded := h.clients.LoadAndDelete(id); loaded {
		close(value.(chan envelope))
	}
}

// Count reports connected subscribers.
func (h *EventHub) Count() int {
	n := 0
	h.clients.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Close unsubscribes from the bus and disconnects every client.
func (h *EventHub) Close() {
	for topic, handler := range h.handlers {
		_ = h.bus.Unsubscribe(topic, handler)
	}
	h.clients.Range(func(key, _ any) bool {
		if value, loaded := h.clients.LoadAndDelete(key); loaded {
			close(value.(chan envelope))
		}
		return true
	})
}
