package nats

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/nats-io/nats.go"
)

type Subscriber struct {
	conn Conn
}

func NewSubscriber(conn Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// ConsumeNotifications delivers order and table events to handler until ctx
// is cancelled. Handler errors are ignored.
func (s *Subscriber) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	var subs []*nats.Subscription
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()

	for _, subject := range []string{SubjectOrderStatus, SubjectTableStatus} {
		sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
			_ = handler(ctx, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		if sub != nil {
			subs = append(subs, sub)
		}
	}

	<-ctx.Done()
	return ctx.Err()
}
