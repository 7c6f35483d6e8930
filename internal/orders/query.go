package orders

import (
	"time"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// Query is a resolved list filter. Branch empty means every branch.
type Query struct {
	From   dbtypes.Date
	To     dbtypes.Date
	Branch enums.Branch
}

// ResolveRange applies the list defaults: no dates means today, and a lone
// start date is a single day.
func ResolveRange(from, to *dbtypes.Date, today dbtypes.Date) (dbtypes.Date, dbtypes.Date) {
	switch {
	case from == nil && to == nil:
		return today, today
	case from == nil:
		return *to, *to
	case to == nil:
		return *from, *from
	}
	return *from, *to
}

// bounds is the half-open instant range [From 00:00, To+1 00:00).
func (q Query) bounds() (time.Time, time.Time) {
	return q.From.Time, q.To.AddDays(1).Time
}
