package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/events"
)

type NotificationHandler struct {
	out    io.Writer
	logger logger.Logger
}

func NewNotificationHandler(out io.Writer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		out:    out,
		logger: logger,
	}
}

// HandleNotification prints one line per lifecycle event
func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var evt events.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	switch {
	case evt.Order != nil:
		o := evt.Order
		h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", o.OrderNumber),
			o.OrderID, map[string]interface{}{
				"order_number": o.OrderNumber,
				"new_status":   o.NewStatus,
			})

		if o.IsCreation() {
			fmt.Fprintf(h.out, "Notification for order %s: created as '%s' by %s\n",
				o.OrderNumber, o.NewStatus, o.ChangedBy)
			return nil
		}
		fmt.Fprintf(h.out, "Notification for order %s: Status changed from '%s' to '%s' by %s\n",
			o.OrderNumber, o.OldStatus, o.NewStatus, o.ChangedBy)

	case evt.Table != nil:
		t := evt.Table
		h.logger.Debug("notification_received", fmt.Sprintf("Received status update for table %s", t.Number),
			t.TableID, map[string]interface{}{
				"table_number": t.Number,
				"new_status":   t.NewStatus,
				"reason":       t.Reason,
			})

		fmt.Fprintf(h.out, "Notification for table %s: Status changed from '%s' to '%s' (%s)\n",
			t.Number, t.OldStatus, t.NewStatus, t.Reason)

	default:
		return fmt.Errorf("empty notification of type %q", evt.Type)
	}

	return nil
}
