package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
)

// ErrNotFound is returned by the stores when no row matches.
var ErrNotFound = errors.New("order not found")

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository builds a stock order store bound to the normales DB.
func NewStockRepository(db *gorm.DB) StockStore {
	return &stockRepository{db: db}
}

func (r *stockRepository) WithTx(tx *gorm.DB) StockStore {
	if tx == nil {
		return r
	}
	return &stockRepository{db: tx}
}

func (r *stockRepository) Create(ctx context.Context, order *models.StockOrder) (int64, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// Update rewrites the mutable columns. Price is kept so the derived total
// follows the new quantity.
func (r *stockRepository) Update(ctx context.Context, order *models.StockOrder) error {
	res := r.db.WithContext(ctx).
		Model(&models.StockOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"cantidad":      order.Quantity,
			"fecha_entrega": order.DeliveryDate,
			"detalles":      order.Details,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StockOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockRepository) FindByID(ctx context.Context, id int64) (*models.StockOrder, error) {
	var order models.StockOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *stockRepository) List(ctx context.Context, q Query) ([]models.StockOrder, error) {
	var out []models.StockOrder
	err := filtered(r.db.WithContext(ctx), q).Find(&out).Error
	return out, err
}

type customRepository struct {
	db *gorm.DB
}

// NewCustomRepository builds a custom order store bound to the clientes DB.
func NewCustomRepository(db *gorm.DB) CustomStore {
	return &customRepository{db: db}
}

func (r *customRepository) WithTx(tx *gorm.DB) CustomStore {
	if tx == nil {
		return r
	}
	return &customRepository{db: tx}
}

func (r *customRepository) Create(ctx context.Context, order *models.CustomOrder) (int64, error) {
	order.RecomputeTotal()
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *customRepository) Update(ctx context.Context, order *models.CustomOrder) error {
	order.RecomputeTotal()
	res := r.db.WithContext(ctx).
		Model(&models.CustomOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"cantidad":      order.Quantity,
			"fecha_entrega": order.DeliveryDate,
			"detalles":      order.Details,
			"color":         order.Color,
			"dedicatoria":   order.Dedication,
			"total":         order.Total,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CustomOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customRepository) FindByID(ctx context.Context, id int64) (*models.CustomOrder, error) {
	var order models.CustomOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *customRepository) List(ctx context.Context, q Query) ([]models.CustomOrder, error) {
	var out []models.CustomOrder
	err := filtered(r.db.WithContext(ctx), q).Find(&out).Error
	return out, err
}

func filtered(db *gorm.DB, q Query) *gorm.DB {
	start, end := q.bounds()
	db = db.Where("fecha >= ? AND fecha < ?", start, end)
	if q.Branch != "" {
		db = db.Where("sucursal = ?", q.Branch)
	}
	return db.Order("fecha DESC").Order("id DESC")
}
