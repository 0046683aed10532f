// Package store holds the tabular row layout shared by the order store
// adapters: one header row, then one row per order in append order.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

// Header is the first row of every order book.
var Header = []string{"Timestamp", "Order ID", "Name", "Email", "Phone", "Items (JSON)", "Subtotal", "Tax", "Total"}

const (
	ColTimestamp = iota
	ColOrderID
	ColName
	ColEmail
	ColPhone
	ColItems
	ColSubtotal
	ColTax
	ColTotal
)

// Row is an order flattened into the order book columns.
type Row struct {
	Timestamp string
	OrderID   string
	Name      string
	Email     string
	Phone     string
	Items     string
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

type itemJSON struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Qty   int64       `json:"qty"`
}

// ToRow flattens order. Items are stored as a JSON array of {id,name,price,qty}.
func ToRow(order entity.Order) (Row, error) {
	items := make([]itemJSON, len(order.Items))
	for i, it := range order.Items {
		items[i] = itemJSON{ID: it.ID, Name: it.Name, Price: json.Number(it.UnitPrice.String()), Qty: it.Quantity}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return Row{}, fmt.Errorf("encode items: %w", err)
	}
	return Row{
		Timestamp: order.CreatedAt.UTC().Format(time.RFC3339Nano),
		OrderID:   order.ID,
		Name:      order.CustomerName,
		Email:     order.Email,
		Phone:     order.Phone,
		Items:     string(raw),
		Subtotal:  order.Subtotal,
		Tax:       order.Tax,
		Total:     order.Total,
	}, nil
}

// Order rebuilds the order stored in r.
func (r Row) Order() (entity.Order, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return entity.Order{}, fmt.Errorf("row %s: parse timestamp %q: %w", r.OrderID, r.Timestamp, err)
	}

	var items []itemJSON
	if err := json.Unmarshal([]byte(r.Items), &items); err != nil {
		return entity.Order{}, fmt.Errorf("row %s: decode items: %w", r.OrderID, err)
	}
	out := make([]entity.CartItem, len(items))
	for i, it := range items {
		price := decimal.Zero
		if it.Price != "" {
			if price, err = decimal.NewFromString(it.Price.String()); err != nil {
				return entity.Order{}, fmt.Errorf("row %s: item %d price: %w", r.OrderID, i, err)
			}
		}
		out[i] = entity.CartItem{ID: it.ID, Name: it.Name, UnitPrice: price, Quantity: it.Qty}
	}

	return entity.Order{
		ID:           r.OrderID,
		CustomerName: r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Items:        out,
		Subtotal:     r.Subtotal,
		Tax:          r.Tax,
		Total:        r.Total,
		CreatedAt:    createdAt,
	}, nil
}

// Cells returns the row as spreadsheet cell values. Money columns are
// numbers so the sheet can sum them.
func (r Row) Cells() []any {
	return []any{
		r.Timestamp,
		r.OrderID,
		r.Name,
		r.Email,
		r.Phone,
		r.Items,
		r.Subtotal.InexactFloat64(),
		r.Tax.InexactFloat64(),
		r.Total.InexactFloat64(),
	}
}

// ParseCells is the inverse of Cells for rows read back as text.
// Trailing empty cells may be missing.
func ParseCells(cells []string) (Row, error) {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	money := func(i int) (decimal.Decimal, error) {
		v := get(i)
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("column %s: %w", Header[i], err)
		}
		return d, nil
	}

	row := Row{
		Timestamp: get(ColTimestamp),
		OrderID:   get(ColOrderID),
		Name:      get(ColName),
		Email:     get(ColEmail),
		Phone:     get(ColPhone),
		Items:     get(ColItems),
	}
	var err error
	if row.Subtotal, err = money(ColSubtotal); err != nil {
		return Row{}, err
	}
	if row.Tax, err = money(ColTax); err != nil {
		return Row{}, err
	}
	if row.Total, err = money(ColTotal); err != nil {
		return Row{}, err
	}
	return row, nil
}
