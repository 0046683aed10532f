package ports

import (
	"context"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

// PlaceOrderCommand carries an order request after loose input has been coerced.
type PlaceOrderCommand struct {
	CustomerName string
	Email        string
	Phone        string
	Items        []entity.CartItem
}

type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (entity.Order, error)
	ListRecent(ctx context.Context, limit int) ([]entity.Order, error)
}
