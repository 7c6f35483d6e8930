package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// StockInput is a new stock order. A nil UnitPrice is resolved from the
// catalog.
type StockInput struct {
	Flavor           enums.Flavor
	Size             enums.Size
	Quantity         int
	UnitPrice        *decimal.Decimal
	Branch           enums.Branch
	DeliveryDate     dbtypes.Date
	Details          string
	CustomFlavorName string
}

// CustomInput is a new client order.
type CustomInput struct {
	StockInput
	Color      string
	Dedication string
}

// UpdateInput replaces the mutable fields of an order. Color and Dedication
// only apply to custom orders.
type UpdateInput struct {
	Quantity     int
	DeliveryDate dbtypes.Date
	Details      string
	Color        string
	Dedication   string
}

// ListFilter is the raw read filter from the caller.
type ListFilter struct {
	From   *dbtypes.Date
	To     *dbtypes.Date
	Branch string
}

// OrderDTO is the wire shape of either order kind.
type OrderDTO struct {
	ID               int64           `json:"id"`
	Kind             enums.OrderKind `json:"tipo"`
	Flavor           enums.Flavor    `json:"sabor"`
	CustomFlavorName string          `json:"sabor_personalizado,omitempty"`
	Size             enums.Size      `json:"tamano"`
	Quantity         int             `json:"cantidad"`
	UnitPrice        decimal.Decimal `json:"precio"`
	Total            decimal.Decimal `json:"total"`
	Branch           enums.Branch    `json:"sucursal"`
	CreatedAt        time.Time       `json:"fecha"`
	DeliveryDate     dbtypes.Date    `json:"fecha_entrega"`
	Details          string          `json:"detalles"`
	Color            *string         `json:"color,omitempty"`
	Dedication       *string         `json:"dedicatoria,omitempty"`
	PhotoPath        *string         `json:"foto_path,omitempty"`
	Editable         bool            `json:"editable"`
}

// Editable reports whether the delivery date has not passed.
func Editable(delivery, today dbtypes.Date) bool {
	return !delivery.Before(today)
}

func stockDTO(o models.StockOrder, today dbtypes.Date) OrderDTO {
	return OrderDTO{
		ID:               o.ID,
		Kind:             enums.OrderKindStock,
		Flavor:           o.Flavor,
		CustomFlavorName: deref(o.CustomFlavorName),
		Size:             o.Size,
		Quantity:         o.Quantity,
		UnitPrice:        o.UnitPrice,
		Total:            o.Total(),
		Branch:           o.Branch,
		CreatedAt:        o.CreatedAt,
		DeliveryDate:     o.DeliveryDate,
		Details:          o.Details,
		Editable:         Editable(o.DeliveryDate, today),
	}
}

func customDTO(o models.CustomOrder, today dbtypes.Date) OrderDTO {
	color, dedication := o.Color, o.Dedication
	return OrderDTO{
		ID:               o.ID,
		Kind:             enums.OrderKindCustom,
		Flavor:           o.Flavor,
		CustomFlavorName: deref(o.CustomFlavorName),
		Size:             o.Size,
		Quantity:         o.Quantity,
		UnitPrice:        o.UnitPrice,
		Total:            o.Total,
		Branch:           o.Branch,
		CreatedAt:        o.CreatedAt,
		DeliveryDate:     o.DeliveryDate,
		Details:          o.Details,
		Color:            &color,
		Dedication:       &dedication,
		PhotoPath:        o.PhotoPath,
		Editable:         Editable(o.DeliveryDate, today),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
