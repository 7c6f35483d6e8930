package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/internal/catalog"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// StockSale aggregates stock orders sharing branch, product and unit price.
type StockSale struct {
	Branch    enums.Branch
	Product   string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// CustomSale is one custom order in the sales report.
type CustomSale struct {
	ID          int64
	Branch      string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Sales is the data behind the sales (ventas) report.
type Sales struct {
	Stock       []StockSale
	StockTotal  decimal.Decimal
	Custom      []CustomSale
	CustomTotal decimal.Decimal
	GrandTotal  decimal.Decimal
}

type saleKey struct {
	branch  enums.Branch
	product string
	price   string
}

// BuildSales groups stock orders and lists custom orders in store order.
func BuildSales(stock []models.StockOrder, custom []models.CustomOrder) Sales {
	groups := map[saleKey]*StockSale{}
	for _, o := range stock {
		product := catalog.ProductLabel(o.Flavor, o.Size, o.CustomFlavorName)
		key := saleKey{branch: o.Branch, product: product, price: o.UnitPrice.StringFixed(2)}
		g, ok := groups[key]
		if !ok {
			g = &StockSale{Branch: o.Branch, Product: product, UnitPrice: o.UnitPrice}
			groups[key] = g
		}
		g.Quantity += o.Quantity
	}

	s := Sales{StockTotal: decimal.Zero, CustomTotal: decimal.Zero}
	for _, g := range groups {
		g.Subtotal = g.UnitPrice.Mul(decimal.NewFromInt(int64(g.Quantity)))
		s.Stock = append(s.Stock, *g)
		s.StockTotal = s.StockTotal.Add(g.Subtotal)
	}
	sort.Slice(s.Stock, func(i, j int) bool {
		a, b := s.Stock[i], s.Stock[j]
		if a.Branch != b.Branch {
			return a.Branch < b.Branch
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.UnitPrice.LessThan(b.UnitPrice)
	})

	for _, o := range custom {
		total := o.Total
		if total.IsZero() {
			total = o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
		}
		s.Custom = append(s.Custom, CustomSale{
			ID:          o.ID,
			Branch:      o.Branch.Abbrev(),
			Description: catalog.ProductLabel(o.Flavor, o.Size, o.CustomFlavorName),
			Quantity:    o.Quantity,
			UnitPrice:   o.UnitPrice,
			Total:       total,
		})
		s.CustomTotal = s.CustomTotal.Add(total)
	}
	s.GrandTotal = s.StockTotal.Add(s.CustomTotal)
	return s
}
