// Package cart is the customer side of the storefront: a local cart over a
// fixed catalog and an HTTP client that submits it as a pre-order.
//
// Totals shown by the cart are for display. The server prices every order
// again from the submitted lines.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/pricing"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

var (
	ErrUnknownProduct = errors.New("cart: unknown product")
	ErrEmptyCart      = errors.New("cart: empty")
	ErrNameRequired   = errors.New("cart: name required")
)

// Line is one product in the cart with its unit price at the time it was added.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Qty       int64
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Qty))
}

// Submitter sends a checkout to the server.
type Submitter interface {
	Submit(ctx context.Context, req wire.PlaceOrderRequest, idempotencyKey string) (wire.Order, error)
}

// Cart is owned by one caller and is not safe for concurrent use.
type Cart struct {
	catalog Catalog
	lines   []Line
	totals  pricing.Totals

	// checkoutKey identifies the current cart contents to the server, so
	// resubmitting an unchanged cart after a lost response does not place a
	// second order.
	checkoutKey string
}

// New returns an empty cart drawing products from catalog.
func New(catalog Catalog) *Cart {
	c := &Cart{catalog: catalog}
	c.changed()
	return c
}

// Add puts one unit of product id in the cart.
func (c *Cart) Add(id string) error {
	p, ok := c.catalog.Lookup(id)
	if !ok {
		return ErrUnknownProduct
	}
	if i := c.index(id); i >= 0 {
		c.lines[i].Qty++
	} else {
		c.lines = append(c.lines, Line{ProductID: p.ID, Name: p.Name, Price: p.Price, Qty: 1})
	}
	c.changed()
	return nil
}

// Increment adds one unit to an existing line. Unknown lines are ignored.
func (c *Cart) Increment(id string) { c.changeQty(id, 1) }

// Decrement removes one unit; a line reaching zero is removed.
func (c *Cart) Decrement(id string) { c.changeQty(id, -1) }

// Remove drops the line for id regardless of quantity.
func (c *Cart) Remove(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.changed()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.changed()
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Totals() pricing.Totals { return c.totals }

// Checkout builds the order request, applying the same checks the
// storefront form does before anything is sent.
func (c *Cart) Checkout(name, email, phone string) (wire.PlaceOrderRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return wire.PlaceOrderRequest{}, ErrNameRequired
	}
	if len(c.lines) == 0 {
		return wire.PlaceOrderRequest{}, ErrEmptyCart
	}

	items := make([]wire.RequestItem, len(c.lines))
	for i, l := range c.lines {
		items[i] = wire.RequestItem{
			ID:    l.ProductID,
			Name:  l.Name,
			Price: json.Number(l.Price.String()),
			Qty:   l.Qty,
		}
	}
	return wire.PlaceOrderRequest{
		Name:  name,
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
		Items: items,
	}, nil
}

// Submit checks out and sends the order. On success the cart is cleared;
// on any error it is left untouched.
func (c *Cart) Submit(ctx context.Context, s Submitter, name, email, phone string) (wire.Order, error) {
	req, err := c.Checkout(name, email, phone)
	if err != nil {
		return wire.Order{}, err
	}
	order, err := s.Submit(ctx, req, c.checkoutKey)
	if err != nil {
		return wire.Order{}, err
	}
	c.Clear()
	return order, nil
}

func (c *Cart) changeQty(id string, delta int64) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.lines[i].Qty += delta
	if c.lines[i].Qty <= 0 {
		c.Remove(id)
		return
	}
	c.changed()
}

func (c *Cart) index(id string) int {
	for i, l := range c.lines {
		if l.ProductID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) changed() {
	lines := make([]pricing.Line, len(c.lines))
	for i, l := range c.lines {
		lines[i] = pricing.Line{Price: l.Price, Quantity: l.Qty}
	}
	c.totals = pricing.Calculate(lines)
	c.checkoutKey = uuid.NewString()
}
