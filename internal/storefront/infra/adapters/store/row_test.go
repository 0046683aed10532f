package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
)

func TestToRowEncodesItemsAsNumbers(t *testing.T) {
	row, err := ToRow(entity.Order{
		ID:           "ORD-1",
		CustomerName: "Ana",
		Items:        []entity.CartItem{{ID: "p2", Name: "Hazelnut Latte", UnitPrice: decimal.RequireFromString("150.00"), Quantity: 2}},
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, `[{"id":"p2","name":"Hazelnut Latte","price":150,"qty":2}]`, row.Items)
	assert.Equal(t, "2025-01-02T03:04:05Z", row.Timestamp)
}

func TestParseCellsToleratesMissingTrailingCells(t *testing.T) {
	row, err := ParseCells([]string{"2025-01-02T03:04:05Z", "ORD-9", "Ben", "", "", `[{"id":"p1","name":"Coffee","price":"120","qty":1}]`})
	require.NoError(t, err)
	assert.True(t, row.Total.IsZero())

	o, err := row.Order()
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(o.Items[0].UnitPrice))
}

func TestParseCellsRejectsBadMoney(t *testing.T) {
	_, err := ParseCells([]string{"2025-01-02T03:04:05Z", "ORD-9", "Ben", "", "", "[]", "lots"})
	require.Error(t, err)
}

func TestRowOrderRejectsBadTimestamp(t *testing.T) {
	_, err := Row{Timestamp: "yesterday", OrderID: "ORD-1", Items: "[]"}.Order()
	require.Error(t, err)
}
