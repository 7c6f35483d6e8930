package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mipastel/pedidos-backend/api/validators"
	"github.com/mipastel/pedidos-backend/internal/orders"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
)

// orderForm is the registration form shared by both order kinds.
type orderForm struct {
	Kind             string `json:"tipo" validate:"required,oneof=normal cliente"`
	Flavor           string `json:"sabor" validate:"required,max=50"`
	Size             string `json:"tamano" validate:"required"`
	Quantity         string `json:"cantidad" validate:"required,numeric"`
	Price            string `json:"precio" validate:"omitempty,numeric"`
	Branch           string `json:"sucursal" validate:"required,max=100"`
	DeliveryDate     string `json:"fecha_entrega" validate:"required,isodate"`
	Details          string `json:"detalles" validate:"max=500,safetext"`
	CustomFlavorName string `json:"sabor_personalizado" validate:"max=100,safetext"`
	Color            string `json:"color" validate:"max=50,safetext"`
	Dedication       string `json:"dedicatoria" validate:"max=300,safetext"`
}

// updateForm carries the editable fields of an existing order.
type updateForm struct {
	Quantity     string `json:"cantidad" validate:"required,numeric"`
	DeliveryDate string `json:"fecha_entrega" validate:"required,isodate"`
	Details      string `json:"detalles" validate:"max=500,safetext"`
	Color        string `json:"color" validate:"max=50,safetext"`
	Dedication   string `json:"dedicatoria" validate:"max=300,safetext"`
}

// formValue trims free-text fields. Branch names are matched exactly and are
// read with r.FormValue instead.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func bindOrderForm(r *http.Request) orderForm {
	return orderForm{
		Kind:             strings.ToLower(formValue(r, "tipo")),
		Flavor:           formValue(r, "sabor"),
		Size:             formValue(r, "tamano"),
		Quantity:         formValue(r, "cantidad"),
		Price:            formValue(r, "precio"),
		Branch:           r.FormValue("sucursal"),
		DeliveryDate:     formValue(r, "fecha_entrega"),
		Details:          formValue(r, "detalles"),
		CustomFlavorName: formValue(r, "sabor_personalizado"),
		Color:            formValue(r, "color"),
		Dedication:       formValue(r, "dedicatoria"),
	}
}

func bindUpdateForm(r *http.Request) updateForm {
	return updateForm{
		Quantity:     formValue(r, "cantidad"),
		DeliveryDate: formValue(r, "fecha_entrega"),
		Details:      formValue(r, "detalles"),
		Color:        formValue(r, "color"),
		Dedication:   formValue(r, "dedicatoria"),
	}
}

func fieldError(field, msg string) error {
	return pkgerrors.Invalid(field, msg)
}

// stockInput converts a validated form. Enum membership is checked here so
// the error names the offending field.
func (f orderForm) stockInput() (orders.StockInput, error) {
	flavor, err := enums.ParseFlavor(f.Flavor)
	if err != nil {
		return orders.StockInput{}, fieldError("sabor", "sabor invalido")
	}
	size, err := enums.ParseSize(f.Size)
	if err != nil {
		return orders.StockInput{}, fieldError("tamano", "tamano invalido")
	}
	branch, err := enums.ParseBranch(f.Branch)
	if err != nil {
		return orders.StockInput{}, fieldError("sucursal", "sucursal invalida")
	}
	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		return orders.StockInput{}, fieldError("cantidad", "cantidad invalida")
	}
	delivery, err := dbtypes.ParseDate(f.DeliveryDate)
	if err != nil {
		return orders.StockInput{}, fieldError("fecha_entrega", "fecha invalida, use YYYY-MM-DD")
	}

	in := orders.StockInput{
		Flavor:           flavor,
		Size:             size,
		Quantity:         qty,
		Branch:           branch,
		DeliveryDate:     delivery,
		Details:          f.Details,
		CustomFlavorName: f.CustomFlavorName,
	}
	if f.Price != "" {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return orders.StockInput{}, fieldError("precio", "precio invalido")
		}
		in.UnitPrice = &price
	}
	return in, nil
}

func (f orderForm) customInput() (orders.CustomInput, error) {
	base, err := f.stockInput()
	if err != nil {
		return orders.CustomInput{}, err
	}
	return orders.CustomInput{StockInput: base, Color: f.Color, Dedication: f.Dedication}, nil
}

func (f updateForm) input() (orders.UpdateInput, error) {
	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		return orders.UpdateInput{}, fieldError("cantidad", "cantidad invalida")
	}
	delivery, err := dbtypes.ParseDate(f.DeliveryDate)
	if err != nil {
		return orders.UpdateInput{}, fieldError("fecha_entrega", "fecha invalida, use YYYY-MM-DD")
	}
	return orders.UpdateInput{
		Quantity:     qty,
		DeliveryDate: delivery,
		Details:      f.Details,
		Color:        f.Color,
		Dedication:   f.Dedication,
	}, nil
}

// parseForm reads urlencoded and multipart bodies alike, mapping an
// oversized body to 413.
func parseForm(r *http.Request, maxMemory int64) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.New(pkgerrors.CodePayloadTooLarge, "el archivo excede el tamano permitido")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "formulario invalido")
}

func orderKind(r *http.Request) (enums.OrderKind, error) {
	kind, err := enums.ParseOrderKind(chi.URLParam(r, "tipo"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "tipo de pedido desconocido")
	}
	return kind, nil
}

func listFilter(r *http.Request) (orders.ListFilter, error) {
	from, err := validators.ParseQueryDate(r, "fecha_inicio")
	if err != nil {
		return orders.ListFilter{}, err
	}
	to, err := validators.ParseQueryDate(r, "fecha_fin")
	if err != nil {
		return orders.ListFilter{}, err
	}
	if from == nil {
		// Older clients send a single "fecha".
		if from, err = validators.ParseQueryDate(r, "fecha"); err != nil {
			return orders.ListFilter{}, err
		}
	}
	return orders.ListFilter{From: from, To: to, Branch: r.URL.Query().Get("sucursal")}, nil
}
