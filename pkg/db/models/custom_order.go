package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// CustomOrder is a personalised client cake stored in the clientes database.
// Unlike StockOrder the total is persisted.
type CustomOrder struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Color            string          `gorm:"column:color;type:varchar(100)"`
	Flavor           enums.Flavor    `gorm:"column:sabor;type:varchar(100);not null"`
	Size             enums.Size      `gorm:"column:tamano;type:varchar(50);not null"`
	Quantity         int             `gorm:"column:cantidad;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:precio;type:numeric(10,2);not null"`
	Total            decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Branch           enums.Branch    `gorm:"column:sucursal;type:varchar(50);not null;index:idx_pasteles_clientes_sucursal_fecha,priority:1"`
	CreatedAt        time.Time       `gorm:"column:fecha;not null;index:idx_pasteles_clientes_sucursal_fecha,priority:2"`
	DeliveryDate     dbtypes.Date    `gorm:"column:fecha_entrega;not null"`
	Dedication       string          `gorm:"column:dedicatoria;type:text"`
	Details          string          `gorm:"column:detalles;type:text"`
	CustomFlavorName *string         `gorm:"column:sabor_personalizado;type:varchar(100)"`
	PhotoPath        *string         `gorm:"column:foto_path;type:varchar(255)"`
}

func (CustomOrder) TableName() string { return "pasteles_clientes" }

// RecomputeTotal keeps the persisted total aligned with price and quantity.
func (o *CustomOrder) RecomputeTotal() {
	o.Total = o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// HasPhoto reports whether a photo reference is attached.
func (o CustomOrder) HasPhoto() bool {
	return o.PhotoPath != nil && *o.PhotoPath != ""
}
