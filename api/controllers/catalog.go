package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/api/middleware"
	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/api/validators"
	"github.com/mipastel/pedidos-backend/internal/catalog"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

type branchOption struct {
	Name   enums.Branch `json:"nombre"`
	Abbrev string       `json:"abreviatura"`
}

type currentUser struct {
	Username string       `json:"username"`
	Role     enums.Role   `json:"rol"`
	Branch   enums.Branch `json:"sucursal,omitempty"`
}

type catalogData struct {
	Flavors     []enums.Flavor `json:"sabores"`
	StockSizes  []enums.Size   `json:"tamanos_normales"`
	CustomSizes []enums.Size   `json:"tamanos_clientes"`
	Branches    []branchOption `json:"sucursales"`
	User        currentUser    `json:"usuario"`
}

// CatalogIndex returns the enumerations front-ends need to build their
// forms. Operators only see their own branch.
func CatalogIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromRequest(r)
		branches := enums.Branches()
		if !actor.IsAdmin() && actor.Branch != "" {
			branches = []enums.Branch{actor.Branch}
		}
		options := make([]branchOption, 0, len(branches))
		for _, b := range branches {
			options = append(options, branchOption{Name: b, Abbrev: b.Abbrev()})
		}
		responses.WriteSuccess(w, catalogData{
			Flavors:     enums.StockFlavors(),
			StockSizes:  enums.StockSizes(),
			CustomSizes: enums.CustomSizes(),
			Branches:    options,
			User:        currentUser{Username: actor.Username, Role: actor.Role, Branch: actor.Branch},
		})
	}
}

type priceLookup struct {
	Price  decimal.Decimal `json:"precio"`
	Found  bool            `json:"encontrado"`
	Detail string          `json:"detalle,omitempty"`
}

// PriceLookup answers the form's price prefill. "Otro" always asks for a
// manual price.
func PriceLookup(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flavor := strings.TrimSpace(r.URL.Query().Get("sabor"))
		size := strings.TrimSpace(r.URL.Query().Get("tamano"))
		if flavor == "" || size == "" {
			responses.WriteError(r.Context(), logg, w, fieldError("sabor", "sabor y tamano son requeridos"))
			return
		}
		if enums.Flavor(flavor).IsOther() {
			responses.WriteSuccess(w, priceLookup{Price: decimal.Zero, Detail: "Precio manual requerido"})
			return
		}

		price, err := svc.LookupPrice(r.Context(), enums.Flavor(flavor), enums.Size(size))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !price.IsPositive() {
			responses.WriteSuccess(w, priceLookup{Price: decimal.Zero, Detail: "No registrado"})
			return
		}
		responses.WriteSuccess(w, priceLookup{Price: price, Found: true})
	}
}

func PriceList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := svc.ListPrices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"precios": prices})
	}
}

type priceUpdateRow struct {
	ID     int64           `json:"id" validate:"required,gt=0"`
	Flavor string          `json:"sabor" validate:"required,max=50"`
	Size   string          `json:"tamano" validate:"required,max=50"`
	Price  decimal.Decimal `json:"precio"`
}

type priceUpdateRequest struct {
	Prices []priceUpdateRow `json:"precios" validate:"required,min=1,dive"`
}

// PriceBulkUpdate applies an admin price edit as one batch.
func PriceBulkUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body priceUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := make([]catalog.PriceUpdate, 0, len(body.Prices))
		for _, p := range body.Prices {
			updates = append(updates, catalog.PriceUpdate{
				ID:     p.ID,
				Flavor: enums.Flavor(p.Flavor),
				Size:   enums.Size(p.Size),
				Price:  p.Price,
			})
		}
		if err := svc.BulkUpdatePrices(r.Context(), updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"actualizados": len(updates)})
	}
}
