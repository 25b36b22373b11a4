package memory

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/tableside/internal/events"
)

type recordingSink struct {
	mu     sync.Mutex
	orders []events.OrderStatusChanged
	tables []events.TableChanged
}

func (r *recordingSink) PublishOrder(ctx context.Context, evt events.OrderStatusChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, evt)
}

func (r *recordingSink) PublishTable(ctx context.Context, evt events.TableChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, evt)
}

func (r *recordingSink) orderEvents() []events.OrderStatusChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.OrderStatusChanged(nil), r.orders...)
}

func (r *recordingSink) tableEvents() []events.TableChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.TableChanged(nil), r.tables...)
}
