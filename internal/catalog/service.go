package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mipastel/pedidos-backend/pkg/db"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// Service exposes catalog pricing operations.
type Service interface {
	LookupPrice(ctx context.Context, flavor enums.Flavor, size enums.Size) (decimal.Decimal, error)
	ListPrices(ctx context.Context) ([]PriceDTO, error)
	BulkUpdatePrices(ctx context.Context, updates []PriceUpdate) error
	SeedDefaults(ctx context.Context) (int64, error)
}

// PriceUpdate is one row of a bulk price update. ID is ignored when seeding.
type PriceUpdate struct {
	ID     int64
	Flavor enums.Flavor
	Size   enums.Size
	Price  decimal.Decimal
}

// PriceDTO is the wire shape of a price row.
type PriceDTO struct {
	ID     int64           `json:"id"`
	Flavor enums.Flavor    `json:"sabor"`
	Size   enums.Size      `json:"tamano"`
	Price  decimal.Decimal `json:"precio"`
}

// ServiceParams groups the catalog dependencies.
type ServiceParams struct {
	Repo   *Repository
	DB     *db.Client
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	db   *db.Client
	logg *logger.Logger
}

// NewService constructs a catalog service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: p.Repo, db: p.DB, logg: logg}, nil
}

// LookupPrice returns zero when the pair is not priced or the flavor is "Otro".
func (s *service) LookupPrice(ctx context.Context, flavor enums.Flavor, size enums.Size) (decimal.Decimal, error) {
	if flavor.IsOther() {
		return decimal.Zero, nil
	}
	row, found, err := s.repo.FindByKey(ctx, flavor, size)
	if err != nil {
		return decimal.Zero, s.storeError(ctx, "catalog.lookup", err)
	}
	if !found {
		return decimal.Zero, nil
	}
	return row.Price, nil
}

func (s *service) ListPrices(ctx context.Context) ([]PriceDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "catalog.list", err)
	}
	out := make([]PriceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, PriceDTO{ID: row.ID, Flavor: row.Flavor, Size: row.Size, Price: row.Price})
	}
	return out, nil
}

// BulkUpdatePrices applies every update in one transaction; the first failure
// rolls back the whole batch.
func (s *service) BulkUpdatePrices(ctx context.Context, updates []PriceUpdate) error {
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no hay precios para actualizar")
	}
	for i, u := range updates {
		if u.ID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "id de precio invalido").
				WithDetails(map[string]any{"index": i})
		}
		if !u.Price.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "el precio debe ser mayor a 0").
				WithDetails(map[string]any{"index": i, "id": u.ID})
		}
		if u.Flavor == "" || u.Size == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "sabor y tamano son requeridos").
				WithDetails(map[string]any{"index": i, "id": u.ID})
		}
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, u := range updates {
			row, err := repo.FindByID(ctx, u.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("precio %d no existe", u.ID))
			}
			if err != nil {
				return err
			}
			row.Flavor, row.Size, row.Price = u.Flavor, u.Size, u.Price.Round(2)
			if err := repo.Save(ctx, row); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("ya existe un precio para %s %s", u.Flavor, u.Size))
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return s.storeError(ctx, "catalog.bulk_update", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "rows", len(updates)), "catalog.prices_updated")
	return nil
}

// SeedDefaults inserts the default price table without touching existing rows.
func (s *service) SeedDefaults(ctx context.Context) (int64, error) {
	defaults := DefaultPriceRows()
	rows := make([]models.PriceRow, 0, len(defaults))
	for _, d := range defaults {
		rows = append(rows, models.PriceRow{Flavor: d.Flavor, Size: d.Size, Price: d.Price})
	}
	inserted, err := s.repo.InsertIfAbsent(ctx, rows)
	if err != nil {
		return 0, s.storeError(ctx, "catalog.seed", err)
	}
	if inserted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "rows", inserted), "catalog.defaults_seeded")
	}
	return inserted, nil
}

func (s *service) storeError(ctx context.Context, op string, err error) error {
	if db.IsMissingTable(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalogo no disponible")
	}
	s.logg.Error(s.logg.WithField(ctx, "op", op), "catalog.store_error", err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "error al consultar precios")
}
