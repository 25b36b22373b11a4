package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const (
	upsertOrderQuery = `
		INSERT INTO orders (id, number, service_type, table_ref, status, total, payment_method,
		                    pending_at, preparing_at, ready_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    pending_at = EXCLUDED.pending_at,
		    preparing_at = EXCLUDED.preparing_at,
		    ready_at = EXCLUDED.ready_at,
		    completed_at = EXCLUDED.completed_at,
		    updated_at = EXCLUDED.updated_at
	`

	// Items never change after creation, so existing rows are left alone
	insertItemQuery = `
		INSERT INTO order_items (order_id, position, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, position) DO NOTHING
	`
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

// Save upserts the order row and inserts its items once
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx Tx) error {
		_, err := tx.Exec(ctx, upsertOrderQuery,
			order.ID, order.Number, order.ServiceType, order.TableRef, order.Status, order.Total, order.PaymentMethod,
			stamp(order, domain.StatusPending), stamp(order, domain.StatusPreparing),
			stamp(order, domain.StatusReady), stamp(order, domain.StatusCompleted),
			order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert order: %w", err)
		}

		for i, item := range order.Items {
			if _, err := tx.Exec(ctx, insertItemQuery, order.ID, i, item.Name, item.Quantity, item.Price); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, at time.Time) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, status) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, orderID, status, changedBy, at)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	query := `
		SELECT order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// LoadAll reads every projected order with its items
func (r *orderRepository) LoadAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, number, service_type, table_ref, status, total, payment_method,
		       pending_at, preparing_at, ready_at, completed_at, created_at, updated_at
		FROM orders
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []*domain.Order
		byID   = make(map[string]*domain.Order)
	)
	for rows.Next() {
		var (
			o                                 domain.Order
			pending, preparing, ready, closed *time.Time
		)
		if err := rows.Scan(
			&o.ID, &o.Number, &o.ServiceType, &o.TableRef, &o.Status, &o.Total, &o.PaymentMethod,
			&pending, &preparing, &ready, &closed, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		o.StatusTimestamps = make(map[domain.Status]time.Time)
		for status, ts := range map[domain.Status]*time.Time{
			domain.StatusPending:   pending,
			domain.StatusPreparing: preparing,
			domain.StatusReady:     ready,
			domain.StatusCompleted: closed,
		} {
			if ts != nil {
				o.StatusTimestamps[status] = *ts
			}
		}

		orders = append(orders, &o)
		byID[o.ID] = &o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, byID map[string]*domain.Order) error {
	query := `SELECT order_id, name, quantity, price FROM order_items ORDER BY order_id, position`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	return rows.Err()
}

func stamp(o *domain.Order, s domain.Status) *time.Time {
	ts, ok := o.StatusTimestamps[s]
	if !ok {
		return nil
	}
	return &ts
}
