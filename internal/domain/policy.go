package domain

import "time"

// TransitionPolicy holds how long an order stays in each status before the
// scheduler moves it forward. Durations are measured from the instant the
// current status was entered.
type TransitionPolicy struct {
	PendingToPreparing  time.Duration
	PreparingToReady    time.Duration
	CounterReadyToDone  time.Duration
	DeliveryReadyToDone time.Duration
}

func DefaultTransitionPolicy() TransitionPolicy {
	return TransitionPolicy{
		PendingToPreparing:  60 * time.Second,
		PreparingToReady:    4 * time.Minute,
		CounterReadyToDone:  5 * time.Minute,
		DeliveryReadyToDone: 30 * time.Minute,
	}
}

// Dwell returns how long an order of the given type stays in status s before
// advancing automatically. ok is false when s never advances on a timer.
func (p TransitionPolicy) Dwell(serviceType ServiceType, s Status) (time.Duration, bool) {
	switch s {
	case StatusPending:
		return p.PendingToPreparing, true
	case StatusPreparing:
		return p.PreparingToReady, true
	case StatusReady:
		switch serviceType {
		case ServiceCounter:
			return p.CounterReadyToDone, true
		case ServiceDelivery:
			return p.DeliveryReadyToDone, true
		}
		// table bills are closed by staff
		return 0, false
	}
	return 0, false
}

// Due returns the status the order should move to at now, if any.
func (p TransitionPolicy) Due(o *Order, now time.Time) (Status, bool) {
	if o.Status.IsTerminal() {
		return "", false
	}

	dwell, ok := p.Dwell(o.ServiceType, o.Status)
	if !ok {
		return "", false
	}

	entered, ok := o.EnteredAt(o.Status)
	if !ok {
		return "", false
	}

	if now.Sub(entered) < dwell {
		return "", false
	}

	return o.Status.Next()
}

// EstimatedReady returns when the order is expected to reach Ready, or false
// once it is past that point.
func (p TransitionPolicy) EstimatedReady(o *Order) (time.Time, bool) {
	switch o.Status {
	case StatusPending:
		entered, _ := o.EnteredAt(StatusPending)
		return entered.Add(p.PendingToPreparing + p.PreparingToReady), true
	case StatusPreparing:
		entered, _ := o.EnteredAt(StatusPreparing)
		return entered.Add(p.PreparingToReady), true
	}
	return time.Time{}, false
}
