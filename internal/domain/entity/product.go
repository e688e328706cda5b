package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un insumo o medicamento del inventario de la clínica.
// StockCurrent solo lo modifica el libro de stock al confirmar un movimiento;
// StockMin y StockMax son informativos (alertas), nunca bloquean un movimiento.
type Product struct {
	ID           string
	Code         string // código único
	Name         string
	CategoryID   string
	UnitMeasure  string
	StockCurrent decimal.Decimal
	StockMin     *decimal.Decimal
	StockMax     *decimal.Decimal
	Cost         decimal.Decimal // costo de compra
	SalePrice    decimal.Decimal
	Active       bool // baja lógica: los movimientos históricos siguen resolviendo el producto
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
