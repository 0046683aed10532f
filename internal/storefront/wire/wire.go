// Package wire holds the JSON shapes shared by the HTTP API, the realtime
// feed and the cart client.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/pricing"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
)

// EventNewOrder is the only event the realtime feed emits.
const EventNewOrder = "new-order"

// PlaceOrderRequest is the body of POST /orders. Price and Qty are loosely
// typed and coerced by pricing.
type PlaceOrderRequest struct {
	Name  string        `json:"name"`
	Email string        `json:"email,omitempty"`
	Phone string        `json:"phone,omitempty"`
	Items []RequestItem `json:"items"`
}

// RequestItem is one cart line as the client sends it.
type RequestItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price any    `json:"price"`
	Qty   any    `json:"qty"`
}

// Item is a priced line in a stored order. Price keeps two decimals.
type Item struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Qty   int64       `json:"qty"`
}

// Order is the JSON view of entity.Order. Money fields are fixed two-decimal
// numbers, never floats.
type Order struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Items     []Item      `json:"items"`
	Subtotal  json.Number `json:"subtotal"`
	Tax       json.Number `json:"tax"`
	Total     json.Number `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PlaceOrderResponse is the 200 body of POST /orders.
type PlaceOrderResponse struct {
	Success bool  `json:"success"`
	Order   Order `json:"order"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// Event is a server-to-client realtime message.
type Event struct {
	Event string `json:"event"`
	Data  Order  `json:"data"`
}

// Command converts the request into a service command. Item ids, names and
// contact fields are passed through; the service trims and validates them.
// A price or quantity too large to represent is a *entity.ValidationError.
func (r PlaceOrderRequest) Command() (ports.PlaceOrderCommand, error) {
	items := make([]entity.CartItem, len(r.Items))
	for i, it := range r.Items {
		price, err := pricing.ParsePrice(it.Price)
		if err != nil {
			return ports.PlaceOrderCommand{}, &entity.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "is out of range"}
		}
		qty, err := pricing.ParseQuantity(it.Qty)
		if err != nil {
			return ports.PlaceOrderCommand{}, &entity.ValidationError{Field: fmt.Sprintf("items[%d].qty", i), Reason: "is out of range"}
		}
		items[i] = entity.CartItem{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: price,
			Quantity:  qty,
		}
	}
	return ports.PlaceOrderCommand{
		CustomerName: r.Name,
		Email:        strings.TrimSpace(r.Email),
		Phone:        strings.TrimSpace(r.Phone),
		Items:        items,
	}, nil
}

// FromOrder maps a domain order to its JSON shape.
func FromOrder(o entity.Order) Order {
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		items[i] = Item{
			ID:    it.ID,
			Name:  it.Name,
			Price: json.Number(it.UnitPrice.String()),
			Qty:   it.Quantity,
		}
	}
	return Order{
		ID:        o.ID,
		Name:      o.CustomerName,
		Email:     o.Email,
		Phone:     o.Phone,
		Items:     items,
		Subtotal:  json.Number(o.Subtotal.String()),
		Tax:       json.Number(o.Tax.String()),
		Total:     json.Number(o.Total.String()),
		CreatedAt: o.CreatedAt,
	}
}

// FromOrders maps orders in order. A nil slice yields an empty one.
func FromOrders(orders []entity.Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}
