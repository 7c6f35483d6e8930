package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
)

// DisplayDateLayout is how dates appear inside reports.
const DisplayDateLayout = "02-01-2006"

// FormatMoney renders an amount as "Q #,##0.00".
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("Q ")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatDate renders a calendar date as dd-mm-yyyy.
func FormatDate(d dbtypes.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

// FormatRange renders a single date or "from al to".
func FormatRange(from, to dbtypes.Date) string {
	if from.String() == to.String() {
		return FormatDate(from)
	}
	return FormatDate(from) + " al " + FormatDate(to)
}
