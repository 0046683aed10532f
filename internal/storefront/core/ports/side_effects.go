package ports

import (
	"context"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

// Notifier sends customer confirmations. Notify must return without waiting
// for delivery; failures are logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, order entity.Order)
}

// Broadcaster pushes a new order to every live session connected right now.
type Broadcaster interface {
	Broadcast(ctx context.Context, order entity.Order)
}
