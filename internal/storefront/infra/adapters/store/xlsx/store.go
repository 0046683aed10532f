// Package xlsx keeps the order book in an Excel workbook.
//
// Every append rewrites the whole workbook, so appends are serialized and
// the new file is swapped in with a rename. Readers always see either the
// previous or the next complete workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/store"
)

// SheetName is the worksheet holding the order rows.
const SheetName = "Orders"

var _ ports.OrderStore = (*Store)(nil)

// Store is an OrderStore over a single workbook file. It is safe for
// concurrent use within one process.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New returns a store backed by the workbook at path. The file is created
// on the first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path is the workbook location.
func (s *Store) Path() string { return s.path }

// Append adds one row for order and writes the workbook back before returning.
func (s *Store) Append(ctx context.Context, order entity.Order) error {
	if err := ctx.Err(); err != nil {
		return s.ioErr("append", err)
	}
	row, err := store.ToRow(order)
	if err != nil {
		return s.ioErr("append", err)
	}
	cells := row.Cells()
	if err := checkCellLengths(cells); err != nil {
		return s.ioErr("append", fmt.Errorf("order %s: %w", order.ID, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return s.ioErr("open", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return s.ioErr("read", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return s.ioErr("append", err)
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return s.ioErr("append", err)
	}
	if err := s.commit(f); err != nil {
		return s.ioErr("write", err)
	}

	slog.DebugContext(ctx, "order row appended", "order_id", order.ID, "row", len(rows)+1, "path", s.path)
	return nil
}

// ListRecent returns up to limit orders, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.ioErr("list", err)
	}
	if limit <= 0 {
		limit = ports.DefaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return []entity.Order{}, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, s.ioErr("open", err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		return []entity.Order{}, nil
	}
	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, s.ioErr("read", err)
	}

	orders := make([]entity.Order, 0, min(limit, len(rows)))
	for i := len(rows) - 1; i >= 1 && len(orders) < limit; i-- {
		if isBlank(rows[i]) {
			continue
		}
		r, err := store.ParseCells(rows[i])
		if err != nil {
			return nil, s.ioErr("read", fmt.Errorf("row %d: %w", i+1, err))
		}
		o, err := r.Order()
		if err != nil {
			return nil, s.ioErr("read", fmt.Errorf("row %d: %w", i+1, err))
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// load opens the existing workbook or creates one with the header row.
func (s *Store) load() (*excelize.File, error) {
	_, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f := excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := writeHeader(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return f, nil
	case err != nil:
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if idx < 0 {
		if _, err := f.NewSheet(SheetName); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := writeHeader(f); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// commit writes f next to the target, syncs it and renames it into place.
func (s *Store) commit(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".orders-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (s *Store) ioErr(op string, err error) error {
	return &entity.StoreIOError{Op: op, Path: s.path, Err: err}
}

func writeHeader(f *excelize.File) error {
	header := make([]any, len(store.Header))
	for i, h := range store.Header {
		header[i] = h
	}
	return f.SetSheetRow(SheetName, "A1", &header)
}

// checkCellLengths rejects rows excelize would silently truncate.
func checkCellLengths(cells []any) error {
	for i, c := range cells {
		v, ok := c.(string)
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
			return fmt.Errorf("column %s: %d characters exceeds the cell limit of %d",
				store.Header[i], n, excelize.TotalCellChars)
		}
	}
	return nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
