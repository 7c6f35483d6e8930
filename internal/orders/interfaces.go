package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/mipastel/pedidos-backend/pkg/db/models"
)

// StockStore persists stock orders in the normales database.
type StockStore interface {
	WithTx(tx *gorm.DB) StockStore
	Create(ctx context.Context, order *models.StockOrder) (int64, error)
	Update(ctx context.Context, order *models.StockOrder) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.StockOrder, error)
	List(ctx context.Context, q Query) ([]models.StockOrder, error)
}

// CustomStore persists custom client orders in the clientes database.
type CustomStore interface {
	WithTx(tx *gorm.DB) CustomStore
	Create(ctx context.Context, order *models.CustomOrder) (int64, error)
	Update(ctx context.Context, order *models.CustomOrder) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.CustomOrder, error)
	List(ctx context.Context, q Query) ([]models.CustomOrder, error)
}
