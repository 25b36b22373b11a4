package events

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
)

// OrderHandler runs synchronously inside the writer's critical section
type OrderHandler func(ctx context.Context, evt OrderStatusChanged)

// Bus delivers events twice: asynchronously to subscribers through buffered
// channels, and synchronously to registered handlers in the goroutine of the
// writer. A slow subscriber loses events rather than stalling
// writers.
type Bus struct {
	mu       sync.RWMutex
	handlers []OrderHandler
	subs     map[string]chan Event
	logger   logger.Logger
}

func NewBus(lgr logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]chan Event),
		logger: lgr,
	}
}

// HandleOrders registers a synchronous handler for order status events
func (b *Bus) HandleOrders(h OrderHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Subscribe returns a channel receiving every event published after the call.
// The returned cancel function closes the channel.
func (b *Bus) Subscribe(name string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if old, ok := b.subs[name]; ok {
		close(old)
	}
	b.subs[name] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if cur, ok := b.subs[name]; ok && cur == ch {
				delete(b.subs, name)
				close(ch)
			}
		})
	}
}

func (b *Bus) PublishOrder(ctx context.Context, evt OrderStatusChanged) {
	b.mu.RLock()
	handlers := append([]OrderHandler(nil), b.handlers...)
	b.mu.RUnlock()

	// subscribers see the order change before any table change it causes
	b.fanout(Event{Type: EventOrderStatusChanged, Order: &evt})

	for _, h := range handlers {
		h(ctx, evt)
	}
}

func (b *Bus) PublishTable(ctx context.Context, evt TableChanged) {
	b.fanout(Event{Type: EventTableStatusChanged, Table: &evt})
}

func (b *Bus) fanout(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for name, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Error("event_dropped", "Subscriber buffer full, event dropped", "", map[string]interface{}{
				"subscriber": name,
				"event_type": evt.Type,
			}, nil)
		}
	}
}
