package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"storefront/internal/telemetry"
)

// StockUpdate is the event pushed to connected clients when a product's
// stock changes. It is a cache-invalidation signal, not a source of truth.
type StockUpdate struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

const subscriberBuffer = 16

// Hub fans stock updates out to all current subscribers. Delivery is best
// effort: sends never block, and a subscriber whose buffer is full misses the
// event. There is no replay; a reconnecting client must re-fetch state.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan StockUpdate
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan StockUpdate)}
}

// Subscribe registers a new observer and returns its id and event channel.
// The channel is closed on Unsubscribe.
func (h *Hub) Subscribe() (string, <-chan StockUpdate) {
	ch := make(chan StockUpdate, subscriberBuffer)
	id := uuid.NewString()

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Notify pushes the new stock level to every subscriber without blocking.
func (h *Hub) Notify(productID string, stock int) {
	update := StockUpdate{ProductID: productID, Stock: stock}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- update:
		default:
			// subscriber is not keeping up, drop the event
		}
	}

	telemetry.StockBroadcasts.Inc()
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
