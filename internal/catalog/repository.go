package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// Repository persists price rows in the normales database.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns every price row ordered by flavor then id.
func (r *Repository) List(ctx context.Context) ([]models.PriceRow, error) {
	var rows []models.PriceRow
	if err := r.db.WithContext(ctx).Order("sabor ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByKey returns the row for (flavor, size); found is false when absent.
func (r *Repository) FindByKey(ctx context.Context, flavor enums.Flavor, size enums.Size) (*models.PriceRow, bool, error) {
	var row models.PriceRow
	err := r.db.WithContext(ctx).Where("sabor = ? AND tamano = ?", flavor, size).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// FindByID loads a row by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.PriceRow, error) {
	var row models.PriceRow
	if err := r.db.WithContext(ctx).Take(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Save overwrites flavor, size and price of an existing row.
func (r *Repository) Save(ctx context.Context, row *models.PriceRow) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceRow{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{"sabor": row.Flavor, "tamano": row.Size, "precio": row.Price}).Error
}

// InsertIfAbsent adds rows whose (flavor, size) is not yet present.
func (r *Repository) InsertIfAbsent(ctx context.Context, rows []models.PriceRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sabor"}, {Name: "tamano"}}, DoNothing: true}).
		Create(&rows)
	return res.RowsAffected, res.Error
}
