package models

import (
	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// PriceRow is one catalog entry in the normales database.
type PriceRow struct {
	ID     int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Flavor enums.Flavor    `gorm:"column:sabor;type:varchar(100);not null;uniqueIndex:uq_pasteles_precios_sabor_tamano"`
	Size   enums.Size      `gorm:"column:tamano;type:varchar(50);not null;uniqueIndex:uq_pasteles_precios_sabor_tamano"`
	Price  decimal.Decimal `gorm:"column:precio;type:numeric(10,2);not null"`
}

func (PriceRow) TableName() string { return "pasteles_precios" }
