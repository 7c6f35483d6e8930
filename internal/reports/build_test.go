package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

func date(day string) dbtypes.Date {
	d, err := dbtypes.ParseDate(day)
	if err != nil {
		panic(err)
	}
	return d
}

func at(day string, hh int) time.Time {
	return date(day).Add(time.Duration(hh) * time.Hour)
}

func stock(branch enums.Branch, flavor enums.Flavor, size enums.Size, qty int, price int64, day string) models.StockOrder {
	return models.StockOrder{
		Flavor:       flavor,
		Size:         size,
		Quantity:     qty,
		UnitPrice:    decimal.NewFromInt(price),
		Branch:       branch,
		CreatedAt:    at(day, 9),
		DeliveryDate: date(day),
	}
}

func custom(id int64, branch enums.Branch, qty int, price int64, day string) models.CustomOrder {
	o := models.CustomOrder{
		ID:           id,
		Flavor:       enums.FlavorFresas,
		Size:         enums.SizeGrande,
		Quantity:     qty,
		UnitPrice:    decimal.NewFromInt(price),
		Branch:       branch,
		CreatedAt:    at(day, 11),
		DeliveryDate: date(day),
		Color:        "blanco",
		Dedication:   "Feliz cumpleaños",
	}
	o.RecomputeTotal()
	return o
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "Q 0.00",
		"100":        "Q 100.00",
		"1234.5":     "Q 1,234.50",
		"1234567.89": "Q 1,234,567.89",
		"-45.1":      "-Q 45.10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "07-01-2025", FormatRange(date("2025-01-07"), date("2025-01-07")))
	assert.Equal(t, "01-01-2025 al 07-01-2025", FormatRange(date("2025-01-01"), date("2025-01-07")))
}

func TestBuildProductionPivotsByBranch(t *testing.T) {
	orders := []models.StockOrder{
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 2, 50, "2025-01-07"),
		stock(enums.BranchJutiapa2, enums.FlavorChocolate, enums.SizeMediano, 3, 50, "2025-01-07"),
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 1, 50, "2025-01-07"),
	}
	other := "Piña colada"
	extra := stock(enums.BranchJutiapa2, enums.FlavorOther, enums.SizeMini, 4, 0, "2025-01-07")
	extra.CustomFlavorName = &other
	orders = append(orders, extra)

	p := BuildProduction(orders, nil, "", false)
	require.Len(t, p.Branches, len(enums.Branches()))
	assert.Equal(t, 10, p.GrandTotal)
	assert.Equal(t, 3, p.Totals[0])
	assert.Equal(t, 7, p.Totals[1])

	var choco, otherRow *PivotRow
	for i := range p.Rows {
		switch p.Rows[i].Product {
		case "MEDIANO DE CHOCOLATE":
			choco = &p.Rows[i]
		case "MINI DE PIÑA COLADA":
			otherRow = &p.Rows[i]
		}
	}
	require.NotNil(t, choco)
	require.NotNil(t, otherRow)
	assert.Equal(t, 6, choco.Total)
	assert.Equal(t, []int{3, 3}, choco.Cells[:2])
	assert.Equal(t, len(p.Rows), otherRow.No, "unseen products go last")
}

func TestBuildProductionRangedSkipsMediaPlancha(t *testing.T) {
	orders := []models.StockOrder{
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediaPlancha, 2, 200, "2025-01-02"),
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 1, 50, "2025-01-03"),
	}

	daily := BuildProduction(orders, nil, enums.BranchJutiapa1, false)
	assert.Equal(t, 3, daily.GrandTotal)

	ranged := BuildProduction(orders, nil, enums.BranchJutiapa1, true)
	assert.Equal(t, 1, ranged.GrandTotal)
	assert.Equal(t, []enums.Branch{enums.BranchJutiapa1}, ranged.Branches)
}

func TestBuildProductionCustomLines(t *testing.T) {
	photo := "/static/uploads/1736236800_foto.jpg"
	c := custom(7, enums.BranchJerez, 2, 150, "2025-01-09")
	c.PhotoPath = &photo

	p := BuildProduction(nil, []models.CustomOrder{c}, "", false)
	require.Len(t, p.Custom, 1)
	line := p.Custom[0]
	assert.Equal(t, int64(7), line.ID)
	assert.Equal(t, "GRANDE DE FRESAS", line.Description)
	assert.Equal(t, "Jerez", line.Branch)
	assert.Equal(t, "09-01-2025", line.Delivery)
	assert.True(t, line.HasPhoto)
	assert.Equal(t, 2, p.CustomQuantity)
}

func TestBuildSalesGroupsByBranchProductAndPrice(t *testing.T) {
	orders := []models.StockOrder{
		stock(enums.BranchJutiapa2, enums.FlavorChocolate, enums.SizeMediano, 1, 50, "2025-01-07"),
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 2, 50, "2025-01-07"),
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 1, 50, "2025-01-07"),
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 1, 55, "2025-01-07"),
	}
	customs := []models.CustomOrder{custom(3, enums.BranchJutiapa1, 1, 155, "2025-01-07")}

	s := BuildSales(orders, customs)
	require.Len(t, s.Stock, 3)
	assert.Equal(t, enums.BranchJutiapa1, s.Stock[0].Branch)
	assert.Equal(t, 3, s.Stock[0].Quantity)
	assert.Equal(t, "150", s.Stock[0].Subtotal.String())
	assert.Equal(t, "55", s.Stock[1].Subtotal.String())
	assert.Equal(t, enums.BranchJutiapa2, s.Stock[2].Branch)

	assert.Equal(t, "255", s.StockTotal.String())
	assert.Equal(t, "155", s.CustomTotal.String())
	assert.Equal(t, "410", s.GrandTotal.String())
	require.Len(t, s.Custom, 1)
	assert.Equal(t, "Jut1", s.Custom[0].Branch)
}

func TestBuildSalesFallsBackToPriceTimesQuantity(t *testing.T) {
	c := custom(4, enums.BranchQuesada, 2, 100, "2025-01-07")
	c.Total = decimal.Zero

	s := BuildSales(nil, []models.CustomOrder{c})
	assert.Equal(t, "200", s.CustomTotal.String())
}

func TestBuildStatistics(t *testing.T) {
	orders := []models.StockOrder{
		stock(enums.BranchJutiapa1, enums.FlavorChocolate, enums.SizeMediano, 2, 50, "2025-01-02"),
		stock(enums.BranchProgreso, enums.FlavorChocolate, enums.SizeMediano, 1, 50, "2025-01-03"),
	}
	customs := []models.CustomOrder{custom(1, enums.BranchJutiapa1, 1, 155, "2025-01-04")}

	st := BuildStatistics(date("2025-01-01"), date("2025-01-07"), "", orders, customs)
	assert.Equal(t, "Todas", st.Branch)
	assert.Equal(t, 2, st.Stock.Orders)
	assert.Equal(t, 3, st.Stock.Quantity)
	assert.Equal(t, "150", st.Stock.Revenue.String())
	assert.Equal(t, 1, st.Custom.Orders)
	assert.Equal(t, 3, st.Totals.Orders)
	assert.Equal(t, "305", st.Totals.Revenue.String())

	require.Len(t, st.ByBranch, 2)
	assert.Equal(t, enums.BranchJutiapa1, st.ByBranch[0].Branch)
	assert.Equal(t, 1, st.ByBranch[0].Custom.Orders)
	assert.Equal(t, enums.BranchProgreso, st.ByBranch[1].Branch)

	scoped := BuildStatistics(date("2025-01-01"), date("2025-01-07"), enums.BranchJutiapa1, nil, nil)
	assert.Equal(t, "Jutiapa 1", scoped.Branch)
	assert.Empty(t, scoped.ByBranch)
}
