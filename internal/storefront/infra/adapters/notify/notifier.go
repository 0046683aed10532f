// Package notify sends best-effort order confirmations by email and SMS.
//
// A channel is active only when its client is configured; a message is
// attempted only when the order carries the matching contact detail.
// Delivery runs on the coordinator and never reports back to the caller.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcmexdev/storefront-preorders/internal/coordinator"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

var _ ports.Notifier = (*Notifier)(nil)

// Dispatcher is the part of coordinator.Dispatcher the notifier needs.
type Dispatcher interface {
	Go(ctx context.Context, tasks ...coordinator.Task)
}

type Notifier struct {
	email      EmailClient
	sms        SMSClient
	dispatcher Dispatcher
}

// New builds a Notifier. Either client may be nil to disable its channel.
func New(email EmailClient, sms SMSClient, dispatcher Dispatcher) *Notifier {
	return &Notifier{email: email, sms: sms, dispatcher: dispatcher}
}

// Notify queues the confirmations for order and returns immediately.
func (n *Notifier) Notify(ctx context.Context, order entity.Order) {
	tasks := n.tasks(order)
	if len(tasks) == 0 {
		slog.DebugContext(ctx, "no notification channel applies", "order_id", order.ID)
		return
	}
	n.dispatcher.Go(ctx, tasks...)
}

func (n *Notifier) tasks(order entity.Order) []coordinator.Task {
	var tasks []coordinator.Task
	if n.email != nil && order.HasEmail() {
		tasks = append(tasks, &channelTask{channel: ChannelEmail, orderID: order.ID, send: func(ctx context.Context) error {
			return n.notifyEmail(ctx, order)
		}})
	}
	if n.sms != nil && order.HasPhone() {
		tasks = append(tasks, &channelTask{channel: ChannelSMS, orderID: order.ID, send: func(ctx context.Context) error {
			return n.notifySMS(ctx, order)
		}})
	}
	return tasks
}

func (n *Notifier) notifyEmail(ctx context.Context, order entity.Order) error {
	return n.email.Send(ctx, order.Email, EmailSubject(order), EmailBody(order))
}

func (n *Notifier) notifySMS(ctx context.Context, order entity.Order) error {
	return n.sms.Send(ctx, order.Phone, SMSBody(order))
}

// channelTask wraps one channel send so failures surface as NotificationError.
type channelTask struct {
	channel string
	orderID string
	send    func(ctx context.Context) error
}

func (t *channelTask) Name() string { return "notify_" + t.channel }

func (t *channelTask) Run(ctx context.Context) error {
	if err := t.send(ctx); err != nil {
		return &entity.NotificationError{Channel: t.channel, OrderID: t.orderID, Err: err}
	}
	return nil
}

// EmailSubject is the subject line of the confirmation email.
func EmailSubject(order entity.Order) string {
	return fmt.Sprintf("Pre-order confirmation (%s)", order.ID)
}

// EmailBody renders the plain-text confirmation email.
func EmailBody(order entity.Order) string {
	type line struct {
		ID    string      `json:"id"`
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
		Qty   int64       `json:"qty"`
	}
	lines := make([]line, len(order.Items))
	for i, it := range order.Items {
		lines[i] = line{ID: it.ID, Name: it.Name, Price: json.Number(it.UnitPrice.String()), Qty: it.Quantity}
	}
	items, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		items = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you %s!\n\n", order.CustomerName)
	fmt.Fprintf(&b, "Order ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Items: %s\n", items)
	fmt.Fprintf(&b, "Subtotal: %s\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\n", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n\n", order.Total.StringFixed(2))
	b.WriteString("We will contact you when order is ready.")
	return b.String()
}

// SMSBody renders the short SMS confirmation.
func SMSBody(order entity.Order) string {
	return fmt.Sprintf("Pre-order confirmed (%s) for %s. Total: %s. Thank you!",
		order.ID, order.CustomerName, order.Total.StringFixed(2))
}

// LogFailure is a coordinator.ErrorSink that logs notification failures
// with their channel and order.
func LogFailure(ctx context.Context, task coordinator.Task, err error) {
	var nerr *entity.NotificationError
	if errors.As(err, &nerr) {
		slog.ErrorContext(ctx, "notification failed",
			"channel", nerr.Channel,
			"order_id", nerr.OrderID,
			"error", nerr.Err,
		)
		return
	}
	slog.ErrorContext(ctx, "task failed", "task", task.Name(), "error", err)
}
