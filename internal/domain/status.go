package domain

import "time"

type ServiceType string

const (
	ServiceCounter  ServiceType = "counter"
	ServiceDelivery ServiceType = "delivery"
	ServiceTable    ServiceType = "table"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceCounter, ServiceDelivery, ServiceTable:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

// Lifecycle is the fixed order every order walks through.
var Lifecycle = []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted}

func (s Status) Valid() bool {
	return s.index() >= 0
}

func (s Status) index() int {
	for i, st := range Lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the immediate successor of s. The terminal status has none.
func (s Status) Next() (Status, bool) {
	i := s.index()
	if i < 0 || i == len(Lifecycle)-1 {
		return "", false
	}
	return Lifecycle[i+1], true
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// Before reports whether s comes earlier than other in the lifecycle.
func (s Status) Before(other Status) bool {
	return s.index() < other.index()
}

type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableCombined    TableStatus = "combined"
	TableMaintenance TableStatus = "maintenance"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCombined, TableMaintenance:
		return true
	}
	return false
}

// StatusLog is one entry of an order's status history.
type StatusLog struct {
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
}
