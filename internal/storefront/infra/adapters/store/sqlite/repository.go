// Package sqlite provides a SQLite-backed implementation of ports.OrderStore.
//
// The orders table is append-only and mirrors the spreadsheet order book
// column for column. WAL mode lets GET /orders read while an append is in
// flight; a single connection serializes the writers.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/store"

	// Pure-Go driver, no CGO needed for the container build.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    -- Insertion sequence; newest-first listing orders by it.
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at  TEXT    NOT NULL,
    order_id    TEXT    NOT NULL UNIQUE,
    name        TEXT    NOT NULL,
    email       TEXT    NOT NULL DEFAULT '',
    phone       TEXT    NOT NULL DEFAULT '',
    -- JSON array of {id,name,price,qty}.
    items       TEXT    NOT NULL,
    -- Money as decimal text so nothing is lost to float rounding.
    subtotal    TEXT    NOT NULL,
    tax         TEXT    NOT NULL,
    total       TEXT    NOT NULL
);
`

var _ ports.OrderStore = (*Repository)(nil)

// Repository is the SQLite implementation of ports.OrderStore.
type Repository struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &entity.StoreIOError{Op: "open", Path: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, &entity.StoreIOError{Op: "open", Path: path, Err: err}
	}

	return &Repository{db: db, path: path}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Append inserts one order row. The insert is committed when it returns.
func (r *Repository) Append(ctx context.Context, order entity.Order) error {
	row, err := store.ToRow(order)
	if err != nil {
		return r.ioErr("append", err)
	}

	const q = `
		INSERT INTO orders
			(created_at, order_id, name, email, phone, items, subtotal, tax, total)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		row.Timestamp,
		row.OrderID,
		row.Name,
		row.Email,
		row.Phone,
		row.Items,
		row.Subtotal.String(),
		row.Tax.String(),
		row.Total.String(),
	)
	if err != nil {
		return r.ioErr("append", fmt.Errorf("insert order %q: %w", order.ID, err))
	}
	return nil
}

// ListRecent returns up to limit orders, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = ports.DefaultRecentLimit
	}

	const q = `
		SELECT created_at, order_id, name, email, phone, items, subtotal, tax, total
		FROM   orders
		ORDER  BY seq DESC
		LIMIT  ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, r.ioErr("list", err)
	}
	defer rows.Close()

	orders := make([]entity.Order, 0, limit)
	for rows.Next() {
		var (
			row                  store.Row
			subtotal, tax, total string
		)
		if err := rows.Scan(
			&row.Timestamp,
			&row.OrderID,
			&row.Name,
			&row.Email,
			&row.Phone,
			&row.Items,
			&subtotal,
			&tax,
			&total,
		); err != nil {
			return nil, r.ioErr("list", err)
		}
		if row.Subtotal, err = money(subtotal); err != nil {
			return nil, r.ioErr("list", fmt.Errorf("order %q: %w", row.OrderID, err))
		}
		if row.Tax, err = money(tax); err != nil {
			return nil, r.ioErr("list", fmt.Errorf("order %q: %w", row.OrderID, err))
		}
		if row.Total, err = money(total); err != nil {
			return nil, r.ioErr("list", fmt.Errorf("order %q: %w", row.OrderID, err))
		}
		o, err := row.Order()
		if err != nil {
			return nil, r.ioErr("list", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, r.ioErr("list", err)
	}
	return orders, nil
}

func (r *Repository) ioErr(op string, err error) error {
	return &entity.StoreIOError{Op: op, Path: r.path, Err: err}
}

// applySchema runs the DDL once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func money(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", v, err)
	}
	return d, nil
}
