package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
)

// ParseQueryDate reads an optional YYYY-MM-DD query parameter.
func ParseQueryDate(r *http.Request, key string) (*dbtypes.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := dbtypes.ParseDate(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "fecha invalida, use YYYY-MM-DD").WithDetails(map[string]any{"field": key})
	}
	return &d, nil
}

// RequireQueryDate is ParseQueryDate for mandatory parameters.
func RequireQueryDate(r *http.Request, key string) (*dbtypes.Date, error) {
	d, err := ParseQueryDate(r, key)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, pkgerrors.Invalid(key, key+" es requerido")
	}
	return d, nil
}

// ParsePathID reads a positive integer route parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.Invalid(key, "identificador invalido")
	}
	return value, nil
}
