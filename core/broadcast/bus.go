// Package broadcast fans game-state events out to every websocket client
// subscribed to a room: a mutex-protected client set plus a buffered
// broadcast channel drained by a single goroutine per hub, with one hub
// per room held in a Bus.
package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frostbyte-dev/santa-ring/internal/logger"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

// hub is a single room's set of subscribed connections and its fan-out
// queue.
type hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func newHub() *hub {
	return &hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *hub) run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

func (h *hub) clientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Bus holds one hub per room, created lazily on first Subscribe or
// Broadcast and torn down once its last client disconnects.
type Bus struct {
	mutex sync.Mutex
	hubs  map[string]*hub
	log   logger.Logger
}

// NewBus constructs an empty Bus.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Bus{hubs: make(map[string]*hub), log: log}
}

func (b *Bus) hubFor(roomID string) *hub {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	h, ok := b.hubs[roomID]
	if !ok {
		h = newHub()
		b.hubs[roomID] = h
		go h.run()
	}
	return h
}

// Subscribe upgrades the request to a websocket connection and registers it
// with the room's hub, spawning a read loop purely to detect disconnects —
// the connection is write-only from the server's point of view.
func (b *Bus) Subscribe(roomID string, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h := b.hubFor(roomID)
	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	b.log.Debug("websocket subscribed", logger.String("room_id", roomID), logger.Int("clients", h.clientCount()))
	metrics.BroadcastSubscribers.WithLabelValues(roomID).Inc()

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			b.log.Debug("websocket disconnected", logger.String("room_id", roomID), logger.Int("clients", remaining))
			metrics.BroadcastSubscribers.WithLabelValues(roomID).Dec()
			if remaining == 0 {
				b.evictIfEmpty(roomID)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}

// evictIfEmpty drops a room's hub once no client remains, so a room that
// finished hours ago doesn't keep a goroutine parked forever.
func (b *Bus) evictIfEmpty(roomID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	h, ok := b.hubs[roomID]
	if !ok || h.clientCount() > 0 {
		return
	}
	delete(b.hubs, roomID)
	close(h.broadcast)
	metrics.BroadcastSubscribers.DeleteLabelValues(roomID)
}

// HubCount reports how many rooms currently have an active hub, used by
// internal/health's leak-detection check.
func (b *Bus) HubCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.hubs)
}

// Broadcast enqueues data for delivery to every subscriber of roomID. A
// room with no subscribers yet still gets a hub, and the message is simply
// dropped once queued since there's no one to deliver it to.
//
// The hub lookup/creation and the channel send happen under the same
// b.mutex critical section that evictIfEmpty uses to delete-and-close a
// hub, so the two can never interleave: either Broadcast observes the hub
// before eviction and sends before the channel is closed, or eviction runs
// first and Broadcast creates a fresh hub to send into. Calling hubFor here
// instead would release the lock between lookup and send, leaving a window
// for evictIfEmpty to close the channel out from under it.
func (b *Bus) Broadcast(roomID string, data []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	h, ok := b.hubs[roomID]
	if !ok {
		h = newHub()
		b.hubs[roomID] = h
		go h.run()
	}
	h.broadcast <- data
}
