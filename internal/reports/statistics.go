package reports

import (
	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// KindStats summarises one order kind.
type KindStats struct {
	Orders   int             `json:"total"`
	Quantity int             `json:"cantidad_total"`
	Revenue  decimal.Decimal `json:"ingresos"`
}

// Totals sums both kinds.
type Totals struct {
	Orders  int             `json:"pedidos"`
	Revenue decimal.Decimal `json:"ingresos"`
}

// BranchStats is the per-branch breakdown.
type BranchStats struct {
	Branch enums.Branch `json:"sucursal"`
	Stock  KindStats    `json:"pasteles_normales"`
	Custom KindStats    `json:"pedidos_clientes"`
}

// Statistics is the JSON summary for a date range.
type Statistics struct {
	From     dbtypes.Date  `json:"fecha_inicio"`
	To       dbtypes.Date  `json:"fecha_fin"`
	Branch   string        `json:"sucursal"`
	Stock    KindStats     `json:"pasteles_normales"`
	Custom   KindStats     `json:"pedidos_clientes"`
	Totals   Totals        `json:"totales"`
	ByBranch []BranchStats `json:"por_sucursal"`
}

// BuildStatistics counts orders, quantities and revenue. Branches with no
// orders are left out of the breakdown.
func BuildStatistics(from, to dbtypes.Date, branch enums.Branch, stock []models.StockOrder, custom []models.CustomOrder) Statistics {
	st := Statistics{
		From:   from,
		To:     to,
		Branch: "Todas",
		Stock:  KindStats{Revenue: decimal.Zero},
		Custom: KindStats{Revenue: decimal.Zero},
	}
	if branch != "" {
		st.Branch = string(branch)
	}

	per := map[enums.Branch]*BranchStats{}
	get := func(b enums.Branch) *BranchStats {
		if s, ok := per[b]; ok {
			return s
		}
		s := &BranchStats{Branch: b, Stock: KindStats{Revenue: decimal.Zero}, Custom: KindStats{Revenue: decimal.Zero}}
		per[b] = s
		return s
	}

	for _, o := range stock {
		total := o.Total()
		st.Stock.add(o.Quantity, total)
		get(o.Branch).Stock.add(o.Quantity, total)
	}
	for _, o := range custom {
		st.Custom.add(o.Quantity, o.Total)
		get(o.Branch).Custom.add(o.Quantity, o.Total)
	}

	st.Totals = Totals{
		Orders:  st.Stock.Orders + st.Custom.Orders,
		Revenue: st.Stock.Revenue.Add(st.Custom.Revenue),
	}
	st.ByBranch = []BranchStats{}
	for _, b := range enums.Branches() {
		if s, ok := per[b]; ok {
			st.ByBranch = append(st.ByBranch, *s)
		}
	}
	return st
}

func (k *KindStats) add(qty int, revenue decimal.Decimal) {
	k.Orders++
	k.Quantity += qty
	k.Revenue = k.Revenue.Add(revenue)
}
