package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

// HistoryEntry is the customer's local copy of a placed order.
type HistoryEntry struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email,omitempty"`
	Phone string      `json:"phone,omitempty"`
	Items []wire.Item `json:"items"`
	Total json.Number `json:"total"`
	TS    time.Time   `json:"ts"`
}

// LoadHistory reads the local history file. A missing file is empty.
func LoadHistory(path string) ([]HistoryEntry, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: read history: %w", err)
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("cart: decode history: %w", err)
	}
	return entries, nil
}

// SaveToHistory appends order to the local history file.
func SaveToHistory(path string, order wire.Order, now time.Time) error {
	entries, err := LoadHistory(path)
	if err != nil {
		return err
	}
	entries = append(entries, HistoryEntry{
		ID:    order.ID,
		Name:  order.Name,
		Email: order.Email,
		Phone: order.Phone,
		Items: order.Items,
		Total: order.Total,
		TS:    now.UTC(),
	})

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("cart: encode history: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cart: create history dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("cart: write history: %w", err)
	}
	return nil
}
