package repository

import (
	"context"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto del registro de productos.
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByCode búsqueda por código interno (conteo físico).
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetForUpdate lee el producto bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// SetCurrentStock lo invoca únicamente el libro de stock, dentro del commit del movimiento.
	SetCurrentStock(ctx context.Context, id string, stock decimal.Decimal) error
	// ListStockAlerts productos activos por debajo de StockMin o por encima de StockMax.
	ListStockAlerts(ctx context.Context) ([]*entity.Product, error)
}
