package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// defaultPrices is the opening price table, in quetzales, seeded into an empty
// catalog. Sizes follow enums.StockSizes order.
var defaultPrices = map[enums.Flavor][6]string{
	enums.FlavorFresas:             {"60.00", "85.00", "125.00", "155.00", "185.00", "325.00"},
	enums.FlavorFrutas:             {"65.00", "90.00", "130.00", "160.00", "195.00", "335.00"},
	enums.FlavorChocolate:          {"70.00", "105.00", "140.00", "185.00", "245.00", "400.00"},
	enums.FlavorSelvaNegra:         {"65.00", "100.00", "130.00", "180.00", "240.00", "390.00"},
	enums.FlavorOreo:               {"70.00", "105.00", "140.00", "185.00", "245.00", "400.00"},
	enums.FlavorChocofresa:         {"70.00", "105.00", "140.00", "185.00", "245.00", "400.00"},
	enums.FlavorTresLeches:         {"70.00", "105.00", "140.00", "185.00", "245.00", "400.00"},
	enums.FlavorTresLechesArandano: {"75.00", "110.00", "145.00", "190.00", "255.00", "420.00"},
	enums.FlavorFiesta:             {"55.00", "70.00", "100.00", "125.00", "175.00", "315.00"},
	enums.FlavorAmbiente:           {"60.00", "85.00", "125.00", "155.00", "185.00", "325.00"},
	enums.FlavorZanahoria:          {"70.00", "105.00", "140.00", "185.00", "245.00", "400.00"},
}

// DefaultPriceRows expands the default table in flavor then size order.
func DefaultPriceRows() []PriceUpdate {
	sizes := enums.StockSizes()
	var out []PriceUpdate
	for _, flavor := range enums.StockFlavors() {
		prices, ok := defaultPrices[flavor]
		if !ok {
			continue
		}
		for i, size := range sizes {
			out = append(out, PriceUpdate{
				Flavor: flavor,
				Size:   size,
				Price:  decimal.RequireFromString(prices[i]),
			})
		}
	}
	return out
}
