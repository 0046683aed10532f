package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a snapshot of one catalog line as it was priced at submission time.
type CartItem struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

// LineTotal returns UnitPrice * Quantity without rounding.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is immutable once built by the order service.
type Order struct {
	ID           string
	CustomerName string
	Email        string
	Phone        string
	Items        []CartItem
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
}

// HasEmail reports whether the customer left an email address.
func (o Order) HasEmail() bool { return o.Email != "" }

// HasPhone reports whether the customer left a phone number.
func (o Order) HasPhone() bool { return o.Phone != "" }
