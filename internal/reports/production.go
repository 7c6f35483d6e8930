package reports

import (
	"strconv"

	"github.com/mipastel/pedidos-backend/internal/catalog"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// PivotRow is one product line of the production table.
type PivotRow struct {
	No      int
	Product string
	Cells   []int
	Total   int
}

// CustomLine is one row of the custom order control table.
type CustomLine struct {
	ID          int64
	Quantity    int
	Description string
	Branch      string
	Delivery    string
	Details     string
	HasPhoto    bool
	Dedication  string
	Color       string
}

// Production is the data behind the production (listas) report.
type Production struct {
	Branches   []enums.Branch
	Rows       []PivotRow
	Totals     []int
	GrandTotal int

	Custom         []CustomLine
	CustomQuantity int
}

// BuildProduction pivots stock orders by product and branch. Rows follow the
// canonical product order with unseen products appended as found. Ranged
// reports leave out the Media plancha size.
func BuildProduction(stock []models.StockOrder, custom []models.CustomOrder, branch enums.Branch, ranged bool) Production {
	branches := enums.Branches()
	if branch != "" {
		branches = []enums.Branch{branch}
	}
	col := make(map[enums.Branch]int, len(branches))
	for i, b := range branches {
		col[b] = i
	}

	labels := catalog.CanonicalProducts()
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(branches))
	}

	for _, o := range stock {
		if ranged && o.Size == enums.SizeMediaPlancha {
			continue
		}
		c, ok := col[o.Branch]
		if !ok {
			continue
		}
		label := catalog.ProductLabel(o.Flavor, o.Size, o.CustomFlavorName)
		i, seen := index[label]
		if !seen {
			i = len(labels)
			labels = append(labels, label)
			index[label] = i
			counts = append(counts, make([]int, len(branches)))
		}
		counts[i][c] += o.Quantity
	}

	p := Production{Branches: branches, Totals: make([]int, len(branches))}
	for i, label := range labels {
		row := PivotRow{No: i + 1, Product: label, Cells: counts[i]}
		for c, v := range counts[i] {
			row.Total += v
			p.Totals[c] += v
		}
		p.GrandTotal += row.Total
		p.Rows = append(p.Rows, row)
	}

	for _, o := range custom {
		p.Custom = append(p.Custom, CustomLine{
			ID:          o.ID,
			Quantity:    o.Quantity,
			Description: catalog.ProductLabel(o.Flavor, o.Size, o.CustomFlavorName),
			Branch:      o.Branch.Abbrev(),
			Delivery:    FormatDate(o.DeliveryDate),
			Details:     o.Details,
			HasPhoto:    o.HasPhoto(),
			Dedication:  o.Dedication,
			Color:       o.Color,
		})
		p.CustomQuantity += o.Quantity
	}
	return p
}

// cell renders a pivot count, blank when zero.
func cell(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
