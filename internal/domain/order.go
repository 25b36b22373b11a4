package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer order moving through the lifecycle
type Order struct {
	ID               string
	Number           string
	ServiceType      ServiceType
	TableRef         string
	Status           Status
	StatusTimestamps map[Status]time.Time
	Items            []OrderItem
	Total            decimal.Decimal
	PaymentMethod    string

	// LastScheduledTransition is the target status of the most recent
	// transition claimed for this order. A transition is claimed before its
	// write is issued and never claimed twice.
	LastScheduledTransition Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is carried through the lifecycle unchanged
type OrderItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// NewOrder creates a pending order stamped at now
func NewOrder(serviceType ServiceType, tableRef string, items []OrderItem, total decimal.Decimal, paymentMethod string, now time.Time) (*Order, error) {
	order := &Order{
		ID:               uuid.NewString(),
		ServiceType:      serviceType,
		TableRef:         tableRef,
		Status:           StatusPending,
		StatusTimestamps: map[Status]time.Time{StatusPending: now},
		Items:            items,
		Total:            total,
		PaymentMethod:    paymentMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies intake rules
func (o *Order) Validate() error {
	if !o.ServiceType.Valid() {
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidOrder, o.ServiceType)
	}

	if o.ServiceType == ServiceTable && o.TableRef == "" {
		return fmt.Errorf("%w: table reference required for table orders", ErrInvalidOrder)
	}

	if o.ServiceType != ServiceTable && o.TableRef != "" {
		return fmt.Errorf("%w: table reference only allowed for table orders", ErrInvalidOrder)
	}

	if len(o.Items) < 1 || len(o.Items) > 20 {
		return fmt.Errorf("%w: order must have 1-20 items", ErrInvalidOrder)
	}

	for _, item := range o.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: item name is required", ErrInvalidOrder)
		}
		if item.Quantity < 1 || item.Quantity > 10 {
			return fmt.Errorf("%w: item quantity must be 1-10", ErrInvalidOrder)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item price must not be negative", ErrInvalidOrder)
		}
	}

	if o.Total.IsNegative() {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidOrder)
	}

	if o.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidOrder)
	}

	return nil
}

// IsActive reports whether the order has not reached the terminal status
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// EnteredAt returns the instant the order entered status s
func (o *Order) EnteredAt(s Status) (time.Time, bool) {
	at, ok := o.StatusTimestamps[s]
	return at, ok
}

// CanTransitionTo checks if newStatus is the immediate successor of the current status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	next, ok := o.Status.Next()
	return ok && next == newStatus
}

// TransitionTo moves the order one step forward, entered at the given instant
func (o *Order) TransitionTo(newStatus Status, at time.Time) error {
	if !o.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}

	return o.enter(newStatus, at)
}

// ForceComplete closes the order regardless of its preparation state.
// Statuses that were skipped keep no timestamp.
func (o *Order) ForceComplete(at time.Time) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: order %s already completed", ErrInvalidTransition, o.ID)
	}

	return o.enter(StatusCompleted, at)
}

func (o *Order) enter(newStatus Status, at time.Time) error {
	// entry instants are strictly increasing along the lifecycle
	if current, ok := o.StatusTimestamps[o.Status]; ok && !at.After(current) {
		return fmt.Errorf("%w: %s entered at %s, cannot enter %s at %s",
			ErrInvalidTransition, o.Status, current.Format(time.RFC3339), newStatus, at.Format(time.RFC3339))
	}

	if _, seen := o.StatusTimestamps[newStatus]; seen {
		return fmt.Errorf("%w: %s already recorded", ErrInvalidTransition, newStatus)
	}

	if o.StatusTimestamps == nil {
		o.StatusTimestamps = make(map[Status]time.Time, len(Lifecycle))
	}

	o.StatusTimestamps[newStatus] = at
	o.Status = newStatus
	o.UpdatedAt = at

	return nil
}

// History returns the recorded statuses in lifecycle order
func (o *Order) History() []StatusLog {
	logs := make([]StatusLog, 0, len(o.StatusTimestamps))
	for _, s := range Lifecycle {
		if at, ok := o.StatusTimestamps[s]; ok {
			logs = append(logs, StatusLog{OrderID: o.ID, Status: s, ChangedAt: at})
		}
	}
	return logs
}

// Clone returns a deep copy safe to hand out of a store
func (o *Order) Clone() *Order {
	c := *o
	c.StatusTimestamps = make(map[Status]time.Time, len(o.StatusTimestamps))
	for k, v := range o.StatusTimestamps {
		c.StatusTimestamps[k] = v
	}
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}
