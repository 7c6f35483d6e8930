package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mipastel/pedidos-backend/pkg/enums"
)

var upper = cases.Upper(language.Spanish)

// canonicalFlavors drive the row order of production reports.
var canonicalFlavors = []enums.Flavor{
	enums.FlavorFresas,
	enums.FlavorFrutas,
	enums.FlavorChocolate,
	enums.FlavorSelvaNegra,
	enums.FlavorOreo,
	enums.FlavorChocofresa,
	enums.FlavorTresLeches,
	enums.FlavorTresLechesArandano,
	enums.FlavorFiesta,
}

var canonicalSizes = []enums.Size{
	enums.SizeMini,
	enums.SizePequeno,
	enums.SizeMediano,
	enums.SizeGrande,
}

// ProductLabel renders "{SIZE} DE {FLAVOR}" in upper case. The free-text name
// replaces the flavor for "Otro" orders when present.
func ProductLabel(flavor enums.Flavor, size enums.Size, customName *string) string {
	name := strings.TrimSpace(string(flavor))
	if flavor.IsOther() && customName != nil && strings.TrimSpace(*customName) != "" {
		name = strings.TrimSpace(*customName)
	}
	return upper.String(strings.TrimSpace(string(size)) + " DE " + name)
}

// CanonicalProducts lists the product labels in report order.
func CanonicalProducts() []string {
	out := make([]string, 0, len(canonicalFlavors)*len(canonicalSizes)+2)
	for _, flavor := range canonicalFlavors {
		for _, size := range canonicalSizes {
			out = append(out, ProductLabel(flavor, size, nil))
		}
		if flavor == enums.FlavorFresas || flavor == enums.FlavorFrutas {
			out = append(out, ProductLabel(flavor, enums.SizeExtraGrande, nil))
		}
	}
	return out
}
