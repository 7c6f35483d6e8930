package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

const (
	closedForEditMessage = "no se pueden modificar pedidos con fecha de entrega pasada"
	notFoundMessage      = "pedido no encontrado"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PriceLookup resolves catalog prices. Zero means not priced.
type PriceLookup interface {
	LookupPrice(ctx context.Context, flavor enums.Flavor, size enums.Size) (decimal.Decimal, error)
}

// Service applies the order write rules on top of both stores.
type Service interface {
	CreateStock(ctx context.Context, actor authz.Actor, input StockInput) (int64, error)
	CreateCustom(ctx context.Context, actor authz.Actor, input CustomInput, photo *uploads.Photo) (int64, error)
	Update(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64, input UpdateInput) error
	Delete(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) error
	Get(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) (*OrderDTO, error)
	ListStock(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error)
	ListCustom(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Stock    StockStore
	Custom   CustomStore
	StockDB  txRunner
	CustomDB txRunner
	Prices   PriceLookup
	Authz    *authz.Authorizer
	Audit    audit.Recorder
	Photos   uploads.Store
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	stock    StockStore
	custom   CustomStore
	stockDB  txRunner
	customDB txRunner
	prices   PriceLookup
	authz    *authz.Authorizer
	audit    audit.Recorder
	photos   uploads.Store
	logg     *logger.Logger
	now      func() time.Time
}

// NewService validates the dependencies and builds the order service.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Stock == nil || p.Custom == nil:
		return nil, fmt.Errorf("order stores are required")
	case p.StockDB == nil || p.CustomDB == nil:
		return nil, fmt.Errorf("transaction runners are required")
	case p.Prices == nil:
		return nil, fmt.Errorf("price lookup is required")
	case p.Authz == nil:
		return nil, fmt.Errorf("authorizer is required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit recorder is required")
	case p.Photos == nil:
		return nil, fmt.Errorf("photo store is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		stock:    p.Stock,
		custom:   p.Custom,
		stockDB:  p.StockDB,
		customDB: p.CustomDB,
		prices:   p.Prices,
		authz:    p.Authz,
		audit:    p.Audit,
		photos:   p.Photos,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) today() dbtypes.Date {
	return dbtypes.NewDate(s.now())
}

func (s *service) CreateStock(ctx context.Context, actor authz.Actor, in StockInput) (int64, error) {
	resource := enums.OrderKindStock.Resource()
	if err := s.authz.RequireBranch(ctx, actor, in.Branch, "create", resource); err != nil {
		return 0, err
	}
	if err := s.validateNew(in, false); err != nil {
		return 0, err
	}

	price, err := s.resolvePrice(ctx, in, false)
	if err != nil {
		return 0, err
	}

	order := &models.StockOrder{
		Flavor:           in.Flavor,
		Size:             in.Size,
		Quantity:         in.Quantity,
		UnitPrice:        price,
		Branch:           in.Branch,
		CreatedAt:        s.now(),
		DeliveryDate:     in.DeliveryDate,
		Details:          strings.TrimSpace(in.Details),
		CustomFlavorName: optional(strings.TrimSpace(in.CustomFlavorName)),
	}
	var id int64
	err = s.stockDB.WithTx(ctx, func(tx *gorm.DB) error {
		var cerr error
		id, cerr = s.stock.WithTx(tx).Create(ctx, order)
		return cerr
	})
	if err != nil {
		s.record(ctx, actor, enums.AuditActionCreate, enums.AuditStatusFailure, resource, 0, map[string]any{"sucursal": string(in.Branch)})
		return 0, s.storeError(ctx, "create_stock", err)
	}

	s.record(ctx, actor, enums.AuditActionCreate, enums.AuditStatusSuccess, resource, id, map[string]any{
		"sucursal": string(order.Branch),
		"sabor":    string(order.Flavor),
		"tamano":   string(order.Size),
		"cantidad": order.Quantity,
		"total":    order.Total().StringFixed(2),
	})
	return id, nil
}

// CreateCustom stores the photo first. The two writes are not atomic: when
// the insert fails the photo is removed on a best-effort basis.
func (s *service) CreateCustom(ctx context.Context, actor authz.Actor, in CustomInput, photo *uploads.Photo) (int64, error) {
	resource := enums.OrderKindCustom.Resource()
	if err := s.authz.RequireBranch(ctx, actor, in.Branch, "create", resource); err != nil {
		return 0, err
	}
	if err := s.validateNew(in.StockInput, true); err != nil {
		return 0, err
	}
	price, err := s.resolvePrice(ctx, in.StockInput, true)
	if err != nil {
		return 0, err
	}

	var photoRef string
	if photo != nil {
		photoRef, err = s.photos.Save(ctx, *photo)
		if err != nil {
			return 0, err
		}
	}

	order := &models.CustomOrder{
		Color:            strings.TrimSpace(in.Color),
		Flavor:           in.Flavor,
		Size:             in.Size,
		Quantity:         in.Quantity,
		UnitPrice:        price,
		Branch:           in.Branch,
		CreatedAt:        s.now(),
		DeliveryDate:     in.DeliveryDate,
		Dedication:       strings.TrimSpace(in.Dedication),
		Details:          strings.TrimSpace(in.Details),
		CustomFlavorName: optional(strings.TrimSpace(in.CustomFlavorName)),
		PhotoPath:        optional(photoRef),
	}
	var id int64
	err = s.customDB.WithTx(ctx, func(tx *gorm.DB) error {
		var cerr error
		id, cerr = s.custom.WithTx(tx).Create(ctx, order)
		return cerr
	})
	if err != nil {
		if photoRef != "" {
			if rerr := s.photos.Remove(photoRef); rerr != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"photo": photoRef, "error": rerr.Error()}), "orders.photo_rollback_failed")
			}
		}
		s.record(ctx, actor, enums.AuditActionCreate, enums.AuditStatusFailure, resource, 0, map[string]any{"sucursal": string(in.Branch)})
		return 0, s.storeError(ctx, "create_custom", err)
	}

	s.record(ctx, actor, enums.AuditActionCreate, enums.AuditStatusSuccess, resource, id, map[string]any{
		"sucursal": string(order.Branch),
		"sabor":    string(order.Flavor),
		"tamano":   string(order.Size),
		"cantidad": order.Quantity,
		"total":    order.Total.StringFixed(2),
		"foto":     order.HasPhoto(),
	})
	return id, nil
}

// Update checks the stored delivery date before the new one, so an order
// whose window has closed always reports CLOSED_FOR_EDIT.
func (s *service) Update(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64, in UpdateInput) error {
	if in.Quantity <= 0 {
		return fieldError("cantidad", "la cantidad debe ser mayor a 0")
	}
	resource := kind.Resource()
	today := s.today()

	check := func(branch enums.Branch, delivery dbtypes.Date) error {
		if err := s.authz.RequireBranch(ctx, actor, branch, "update", resource); err != nil {
			return err
		}
		if !Editable(delivery, today) {
			return pkgerrors.New(pkgerrors.CodeClosedForEdit, closedForEditMessage)
		}
		if in.DeliveryDate.IsZero() || in.DeliveryDate.Before(today) {
			return fieldError("fecha_entrega", "la fecha de entrega no puede ser anterior a hoy")
		}
		return nil
	}

	var (
		branch enums.Branch
		err    error
	)
	switch kind {
	case enums.OrderKindStock:
		err = s.stockDB.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.stock.WithTx(tx)
			order, ferr := repo.FindByID(ctx, id)
			if ferr != nil {
				return ferr
			}
			branch = order.Branch
			if cerr := check(order.Branch, order.DeliveryDate); cerr != nil {
				return cerr
			}
			order.Quantity = in.Quantity
			order.DeliveryDate = in.DeliveryDate
			order.Details = strings.TrimSpace(in.Details)
			return repo.Update(ctx, order)
		})
	case enums.OrderKindCustom:
		err = s.customDB.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.custom.WithTx(tx)
			order, ferr := repo.FindByID(ctx, id)
			if ferr != nil {
				return ferr
			}
			branch = order.Branch
			if cerr := check(order.Branch, order.DeliveryDate); cerr != nil {
				return cerr
			}
			order.Quantity = in.Quantity
			order.DeliveryDate = in.DeliveryDate
			order.Details = strings.TrimSpace(in.Details)
			order.Color = strings.TrimSpace(in.Color)
			order.Dedication = strings.TrimSpace(in.Dedication)
			return repo.Update(ctx, order)
		})
	default:
		return fieldError("tipo", "tipo de pedido invalido")
	}
	if err != nil {
		return s.storeError(ctx, "update_"+kind.String(), err)
	}

	s.record(ctx, actor, enums.AuditActionUpdate, enums.AuditStatusSuccess, resource, id, map[string]any{
		"sucursal":      string(branch),
		"cantidad":      in.Quantity,
		"fecha_entrega": in.DeliveryDate.String(),
	})
	return nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) error {
	resource := kind.Resource()
	today := s.today()

	check := func(branch enums.Branch, delivery dbtypes.Date) error {
		if err := s.authz.RequireBranch(ctx, actor, branch, "delete", resource); err != nil {
			return err
		}
		if !Editable(delivery, today) {
			return pkgerrors.New(pkgerrors.CodeClosedForEdit, closedForEditMessage)
		}
		return nil
	}

	var (
		branch enums.Branch
		err    error
	)
	switch kind {
	case enums.OrderKindStock:
		err = s.stockDB.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.stock.WithTx(tx)
			order, ferr := repo.FindByID(ctx, id)
			if ferr != nil {
				return ferr
			}
			branch = order.Branch
			if cerr := check(order.Branch, order.DeliveryDate); cerr != nil {
				return cerr
			}
			return repo.Delete(ctx, id)
		})
	case enums.OrderKindCustom:
		err = s.customDB.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.custom.WithTx(tx)
			order, ferr := repo.FindByID(ctx, id)
			if ferr != nil {
				return ferr
			}
			branch = order.Branch
			if cerr := check(order.Branch, order.DeliveryDate); cerr != nil {
				return cerr
			}
			// The photo blob is left in place.
			return repo.Delete(ctx, id)
		})
	default:
		return fieldError("tipo", "tipo de pedido invalido")
	}
	if err != nil {
		return s.storeError(ctx, "delete_"+kind.String(), err)
	}

	s.record(ctx, actor, enums.AuditActionDelete, enums.AuditStatusSuccess, resource, id, map[string]any{
		"sucursal": string(branch),
	})
	return nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) (*OrderDTO, error) {
	resource := kind.Resource()
	today := s.today()

	var dto OrderDTO
	switch kind {
	case enums.OrderKindStock:
		order, err := s.stock.FindByID(ctx, id)
		if err != nil {
			return nil, s.storeError(ctx, "get_normal", err)
		}
		dto = stockDTO(*order, today)
	case enums.OrderKindCustom:
		order, err := s.custom.FindByID(ctx, id)
		if err != nil {
			return nil, s.storeError(ctx, "get_cliente", err)
		}
		dto = customDTO(*order, today)
	default:
		return nil, fieldError("tipo", "tipo de pedido invalido")
	}

	if err := s.authz.RequireBranch(ctx, actor, dto.Branch, "read", resource); err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) ListStock(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error) {
	q, err := s.query(ctx, actor, filter, enums.OrderKindStock.Resource())
	if err != nil {
		return nil, err
	}
	rows, err := s.stock.List(ctx, q)
	if err != nil {
		return nil, s.storeError(ctx, "list_normales", err)
	}
	today := s.today()
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, stockDTO(row, today))
	}
	return out, nil
}

func (s *service) ListCustom(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error) {
	q, err := s.query(ctx, actor, filter, enums.OrderKindCustom.Resource())
	if err != nil {
		return nil, err
	}
	rows, err := s.custom.List(ctx, q)
	if err != nil {
		return nil, s.storeError(ctx, "list_clientes", err)
	}
	today := s.today()
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, customDTO(row, today))
	}
	return out, nil
}

func (s *service) query(ctx context.Context, actor authz.Actor, filter ListFilter, resource string) (Query, error) {
	branch, err := s.authz.ScopeBranch(ctx, actor, filter.Branch, "list", resource)
	if err != nil {
		return Query{}, err
	}
	from, to := ResolveRange(filter.From, filter.To, s.today())
	if to.Before(from) {
		return Query{}, fieldError("fecha_fin", "la fecha final no puede ser anterior a la inicial")
	}
	return Query{From: from, To: to, Branch: branch}, nil
}

func (s *service) validateNew(in StockInput, custom bool) error {
	if !in.Flavor.IsValid() {
		return fieldError("sabor", "sabor invalido")
	}
	if (custom && !in.Size.IsValid()) || (!custom && !in.Size.IsStock()) {
		return fieldError("tamano", "tamano invalido")
	}
	if !in.Branch.IsValid() {
		return fieldError("sucursal", "sucursal invalida")
	}
	if in.Quantity <= 0 {
		return fieldError("cantidad", "la cantidad debe ser mayor a 0")
	}
	if in.DeliveryDate.IsZero() || in.DeliveryDate.Before(s.today()) {
		return fieldError("fecha_entrega", "la fecha de entrega no puede ser anterior a hoy")
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return fieldError("precio", "el precio no puede ser negativo")
		}
		if in.UnitPrice.IsZero() && (custom || !in.Flavor.IsOther()) {
			return fieldError("precio", "el precio debe ser mayor a 0")
		}
	}
	return nil
}

// resolvePrice fills a missing price from the catalog. Only stock orders of
// the Otro flavor may end up at zero.
func (s *service) resolvePrice(ctx context.Context, in StockInput, custom bool) (decimal.Decimal, error) {
	if in.UnitPrice != nil {
		return in.UnitPrice.Round(2), nil
	}
	price, err := s.prices.LookupPrice(ctx, in.Flavor, in.Size)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsPositive() {
		return price, nil
	}
	if !custom && in.Flavor.IsOther() {
		return decimal.Zero, nil
	}
	return decimal.Zero, fieldError("precio",
		fmt.Sprintf("no se encontro precio para %s %s, ingrese el precio manualmente", in.Flavor, in.Size))
}

func (s *service) record(ctx context.Context, actor authz.Actor, action enums.AuditAction, status enums.AuditStatus, resource string, id int64, details map[string]any) {
	s.audit.Record(ctx, audit.Event{
		Actor:      actor.Username,
		Action:     action,
		Status:     status,
		Resource:   resource,
		ResourceID: id,
		Details:    details,
	})
}

func (s *service) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	s.logg.Error(s.logg.WithField(ctx, "op", op), "orders.store_error", err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "error al procesar el pedido")
}

func fieldError(field, message string) error {
	return pkgerrors.Invalid(field, message)
}
