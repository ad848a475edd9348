package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "user-events:"

// Event is a named notification fanned out to a user's live dashboards.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Hub routes events to per-user subscribers. Publishes go through Redis
// pub/sub so every server instance sees them.
type Hub struct {
	redis *redis.Client
	log   zerolog.Logger

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}

	stopChan chan struct{}
}

func NewHub(redisClient *redis.Client, log zerolog.Logger) *Hub {
	return &Hub{
		redis:    redisClient,
		log:      log,
		subs:     make(map[string]map[chan Event]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Run consumes the Redis pub/sub feed until Stop. Blocking; run in a
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-h.stopChan:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			username := strings.TrimPrefix(msg.Channel, channelPrefix)
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn().Err(err).Str("channel", msg.Channel).Msg("bad event payload")
				continue
			}
			h.dispatch(username, event)
		}
	}
}

func (h *Hub) Stop() {
	close(h.stopChan)
}

func (h *Hub) dispatch(username string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[username] {
		select {
		case ch <- event:
		default:
			// Subscriber is not draining; drop rather than block the feed.
		}
	}
}

// Subscribe registers a listener for the user's events. The returned func
// unregisters and closes the channel.
func (h *Hub) Subscribe(username string) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	if h.subs[username] == nil {
		h.subs[username] = make(map[chan Event]struct{})
	}
	h.subs[username][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[username]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, username)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish emits an event for the user across all instances.
func (h *Hub) Publish(ctx context.Context, username, name string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn().Err(err).Str("event", name).Msg("event marshal failed")
		return
	}
	body, err := json.Marshal(Event{Name: name, Payload: raw})
	if err != nil {
		return
	}
	if err := h.redis.Publish(ctx, channelPrefix+username, body).Err(); err != nil {
		h.log.Warn().Err(err).Str("user", username).Str("event", name).Msg("event publish failed")
	}
}

// SubscriberCount is used by tests and the health endpoint.
func (h *Hub) SubscriberCount(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[username])
}
