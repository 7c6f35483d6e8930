package enums

import (
	"fmt"
	"strings"
)

// Flavor is a cake flavor offered by the chain.
type Flavor string

const (
	FlavorFresas             Flavor = "Fresas"
	FlavorFrutas             Flavor = "Frutas"
	FlavorChocolate          Flavor = "Chocolate"
	FlavorSelvaNegra         Flavor = "Selva negra"
	FlavorOreo               Flavor = "Oreo"
	FlavorChocofresa         Flavor = "Chocofresa"
	FlavorTresLeches         Flavor = "Tres Leches"
	FlavorTresLechesArandano Flavor = "Tres leches con Arándanos"
	FlavorFiesta             Flavor = "Fiesta"
	FlavorAmbiente           Flavor = "Ambiente"
	FlavorZanahoria          Flavor = "Zanahoria"
	// FlavorOther opts out of catalog pricing and carries a free-text name.
	FlavorOther Flavor = "Otro"
)

var stockFlavors = []Flavor{
	FlavorFresas,
	FlavorFrutas,
	FlavorChocolate,
	FlavorSelvaNegra,
	FlavorOreo,
	FlavorChocofresa,
	FlavorTresLeches,
	FlavorTresLechesArandano,
	FlavorFiesta,
	FlavorAmbiente,
	FlavorZanahoria,
	FlavorOther,
}

// StockFlavors lists the flavors accepted on stock orders.
func StockFlavors() []Flavor {
	out := make([]Flavor, len(stockFlavors))
	copy(out, stockFlavors)
	return out
}

// CustomFlavors lists the flavors accepted on custom orders.
func CustomFlavors() []Flavor {
	return StockFlavors()
}

// String implements fmt.Stringer.
func (f Flavor) String() string {
	return string(f)
}

// IsOther reports whether the flavor is the free-text "custom/other" value.
func (f Flavor) IsOther() bool {
	return strings.EqualFold(strings.TrimSpace(string(f)), string(FlavorOther))
}

// IsValid reports whether the value is a known Flavor.
func (f Flavor) IsValid() bool {
	for _, candidate := range stockFlavors {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFlavor converts raw input into a Flavor.
func ParseFlavor(value string) (Flavor, error) {
	for _, candidate := range stockFlavors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	if Flavor(value).IsOther() {
		return FlavorOther, nil
	}
	return "", fmt.Errorf("invalid flavor %q", value)
}

// Size is a cake size.
type Size string

const (
	SizeMini         Size = "Mini"
	SizePequeno      Size = "Pequeño"
	SizeMediano      Size = "Mediano"
	SizeGrande       Size = "Grande"
	SizeExtraGrande  Size = "Extra grande"
	SizeMediaPlancha Size = "Media plancha"
	SizeBoda         Size = "Boda"
	SizeQuinceAnos   Size = "Quince Años"
)

var stockSizes = []Size{
	SizeMini,
	SizePequeno,
	SizeMediano,
	SizeGrande,
	SizeExtraGrande,
	SizeMediaPlancha,
}

var customSizes = append(append([]Size{}, stockSizes...), SizeBoda, SizeQuinceAnos)

// StockSizes lists the sizes accepted on stock orders.
func StockSizes() []Size {
	out := make([]Size, len(stockSizes))
	copy(out, stockSizes)
	return out
}

// CustomSizes lists the sizes accepted on custom orders, a superset of StockSizes.
func CustomSizes() []Size {
	out := make([]Size, len(customSizes))
	copy(out, customSizes)
	return out
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return string(s)
}

// IsStock reports whether the size may be used on a stock order.
func (s Size) IsStock() bool {
	for _, candidate := range stockSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsValid reports whether the value is a known Size.
func (s Size) IsValid() bool {
	for _, candidate := range customSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSize converts raw input into a Size.
func ParseSize(value string) (Size, error) {
	for _, candidate := range customSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size %q", value)
}
