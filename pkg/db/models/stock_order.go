package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// StockOrder is a catalog cake ordered by a branch. Its total is derived at
// read time from price and quantity.
type StockOrder struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Flavor           enums.Flavor    `gorm:"column:sabor;type:varchar(100);not null"`
	Size             enums.Size      `gorm:"column:tamano;type:varchar(50);not null"`
	Quantity         int             `gorm:"column:cantidad;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:precio;type:numeric(10,2);not null"`
	Branch           enums.Branch    `gorm:"column:sucursal;type:varchar(50);not null;index:idx_pasteles_normales_sucursal_fecha,priority:1"`
	CreatedAt        time.Time       `gorm:"column:fecha;not null;index:idx_pasteles_normales_sucursal_fecha,priority:2"`
	DeliveryDate     dbtypes.Date    `gorm:"column:fecha_entrega;not null"`
	Details          string          `gorm:"column:detalles;type:text"`
	CustomFlavorName *string         `gorm:"column:sabor_personalizado;type:varchar(100)"`
}

func (StockOrder) TableName() string { return "pasteles_normales" }

// Total is price times quantity.
func (o StockOrder) Total() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
