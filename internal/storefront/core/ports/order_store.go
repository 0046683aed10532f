package ports

import (
	"context"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

// DefaultRecentLimit caps ListRecent.
const DefaultRecentLimit = 200

// OrderStore is the append-only record of placed orders.
// Implementations return *entity.StoreIOError on any read or write failure.
type OrderStore interface {
	// Append commits one order before returning.
	Append(ctx context.Context, order entity.Order) error
	// ListRecent returns at most limit orders, newest first. A store that
	// does not exist yet yields an empty slice.
	ListRecent(ctx context.Context, limit int) ([]entity.Order, error)
}
