package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/pricing"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
)

var _ ports.OrderService = (*OrderService)(nil)

// OrderService is the single entry point for placing orders. It is the only
// writer to the order store and the only place order ids are minted.
type OrderService struct {
	store       ports.OrderStore
	notifier    ports.Notifier
	broadcaster ports.Broadcaster
	ids         *IDGenerator
	now         func() time.Time
}

// OrderServiceDeps wires an OrderService. Only Store is required; the
// rest fall back to no-ops, a fresh IDGenerator and time.Now.
type OrderServiceDeps struct {
	Store       ports.OrderStore
	Notifier    ports.Notifier
	Broadcaster ports.Broadcaster
	IDs         *IDGenerator
	Now         func() time.Time
}

// NewOrderService fills in defaults for the optional deps.
func NewOrderService(deps OrderServiceDeps) (*OrderService, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("order service: store is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = noopBroadcaster{}
	}
	if deps.IDs == nil {
		deps.IDs = NewIDGenerator()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &OrderService{
		store:       deps.Store,
		notifier:    deps.Notifier,
		broadcaster: deps.Broadcaster,
		ids:         deps.IDs,
		now:         deps.Now,
	}, nil
}

// PlaceOrder validates, prices and persists an order, then fires the
// confirmation and broadcast side effects. Nothing after the append can
// fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd ports.PlaceOrderCommand) (entity.Order, error) {
	if err := validate(cmd); err != nil {
		return entity.Order{}, err
	}

	now := s.now().UTC()
	id, err := s.ids.NewID(now)
	if err != nil {
		return entity.Order{}, fmt.Errorf("order service: mint id: %w", err)
	}

	items := make([]entity.CartItem, len(cmd.Items))
	lines := make([]pricing.Line, len(cmd.Items))
	for i, it := range cmd.Items {
		items[i] = entity.CartItem{
			ID:        strings.TrimSpace(it.ID),
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
		lines[i] = pricing.Line{Price: it.UnitPrice, Quantity: it.Quantity}
	}
	totals := pricing.Calculate(lines)

	order := entity.Order{
		ID:           id,
		CustomerName: strings.TrimSpace(cmd.CustomerName),
		Email:        strings.TrimSpace(cmd.Email),
		Phone:        strings.TrimSpace(cmd.Phone),
		Items:        items,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		CreatedAt:    now,
	}

	if err := s.store.Append(ctx, order); err != nil {
		slog.ErrorContext(ctx, "order append failed", "order_id", order.ID, "error", err)
		return entity.Order{}, err
	}
	slog.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"items", len(order.Items),
		"total", order.Total.StringFixed(2),
	)

	// The side effects outlive the request; only cancellation is dropped.
	sideCtx := context.WithoutCancel(ctx)
	s.notifier.Notify(sideCtx, order)
	s.broadcaster.Broadcast(sideCtx, order)

	return order, nil
}

// ListRecent returns up to limit orders, newest first. Values outside
// 1..DefaultRecentLimit fall back to DefaultRecentLimit.
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 || limit > ports.DefaultRecentLimit {
		limit = ports.DefaultRecentLimit
	}
	return s.store.ListRecent(ctx, limit)
}

// Bounds on a single order. They keep a row well inside what every store
// backend can hold.
const (
	MaxItems   = 100
	MaxTextLen = 200
)

func validate(cmd ports.PlaceOrderCommand) error {
	if strings.TrimSpace(cmd.CustomerName) == "" {
		return &entity.ValidationError{Field: "name", Reason: "is required"}
	}
	for _, f := range [][2]string{{"name", cmd.CustomerName}, {"email", cmd.Email}, {"phone", cmd.Phone}} {
		if err := checkLen(f[0], f[1]); err != nil {
			return err
		}
	}
	if len(cmd.Items) == 0 {
		return &entity.ValidationError{Field: "items", Reason: "must contain at least one item"}
	}
	if len(cmd.Items) > MaxItems {
		return &entity.ValidationError{Field: "items", Reason: fmt.Sprintf("must contain at most %d items", MaxItems)}
	}
	for i, it := range cmd.Items {
		if it.Quantity < 1 {
			return &entity.ValidationError{Field: fmt.Sprintf("items[%d].qty", i), Reason: "must be at least 1"}
		}
		if it.UnitPrice.IsNegative() {
			return &entity.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "must not be negative"}
		}
		if it.UnitPrice.GreaterThan(pricing.MaxAmount) {
			return &entity.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "is out of range"}
		}
		if err := checkLen(fmt.Sprintf("items[%d].id", i), it.ID); err != nil {
			return err
		}
		if err := checkLen(fmt.Sprintf("items[%d].name", i), it.Name); err != nil {
			return err
		}
	}
	return nil
}

func checkLen(field, v string) error {
	if utf8.RuneCountInString(v) > MaxTextLen {
		return &entity.ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", MaxTextLen)}
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, entity.Order) {}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(context.Context, entity.Order) {}
