package enums

import (
	"fmt"
	"strings"
)

// OrderKind distinguishes stock orders from custom client orders.
type OrderKind string

const (
	OrderKindStock  OrderKind = "normal"
	OrderKindCustom OrderKind = "cliente"
)

// String implements fmt.Stringer.
func (k OrderKind) String() string {
	return string(k)
}

// Resource returns the audit resource name for the kind.
func (k OrderKind) Resource() string {
	if k == OrderKindCustom {
		return "pedido_cliente"
	}
	return "pedido_normal"
}

// ParseOrderKind accepts both the singular and plural route tokens.
func ParseOrderKind(value string) (OrderKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "normal", "normales":
		return OrderKindStock, nil
	case "cliente", "clientes":
		return OrderKindCustom, nil
	}
	return "", fmt.Errorf("invalid order kind %q", value)
}
