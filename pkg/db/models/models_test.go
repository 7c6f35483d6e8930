package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStockOrderTotal(t *testing.T) {
	o := StockOrder{UnitPrice: decimal.RequireFromString("50.00"), Quantity: 2}
	assert.True(t, o.Total().Equal(decimal.NewFromInt(100)))
}

func TestCustomOrderRecomputeTotal(t *testing.T) {
	o := CustomOrder{UnitPrice: decimal.RequireFromString("125.50"), Quantity: 3}
	o.RecomputeTotal()
	assert.Equal(t, "376.5", o.Total.String())
}

func TestCustomOrderHasPhoto(t *testing.T) {
	empty := ""
	path := "/static/uploads/1700000000_torta.png"
	assert.False(t, CustomOrder{}.HasPhoto())
	assert.False(t, CustomOrder{PhotoPath: &empty}.HasPhoto())
	assert.True(t, CustomOrder{PhotoPath: &path}.HasPhoto())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "pasteles_precios", PriceRow{}.TableName())
	assert.Equal(t, "pasteles_normales", StockOrder{}.TableName())
	assert.Equal(t, "pasteles_clientes", CustomOrder{}.TableName())
}
