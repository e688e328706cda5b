package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Los request del libro solo validan longitudes. Existencia de referencias, proveedor,
// cantidad y precio los decide RecordMovement en su orden (404/422 en lugar de 400).

// RegisterMovementRequest body para POST /api/inventory/movements (tipo explícito).
type RegisterMovementRequest struct {
	ProductID  string           `json:"product_id" validate:"max=64"`
	Type       string           `json:"type" validate:"max=20"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Reason     string           `json:"reason,omitempty" validate:"max=255"`
	SupplierID *string          `json:"supplier_id,omitempty" validate:"omitempty,max=64"`
	Notes      string           `json:"notes,omitempty" validate:"max=1000"`
}

// ReceiptRequest body para POST /api/inventory/receipts (entrada de compra).
type ReceiptRequest struct {
	ProductID  string           `json:"product_id" validate:"max=64"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	SupplierID string           `json:"supplier_id" validate:"max=64"`
	Reason     string           `json:"reason,omitempty" validate:"max=255"`
	Notes      string           `json:"notes,omitempty" validate:"max=1000"`
}

// ConsumptionRequest body para POST /api/inventory/consumptions (salida por consumo).
type ConsumptionRequest struct {
	ProductID string          `json:"product_id" validate:"max=64"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty" validate:"max=255"`
	Notes     string          `json:"notes,omitempty" validate:"max=1000"`
}

// CorrectionRequest body para POST /api/inventory/corrections.
// TargetStock es el nivel absoluto resultante (conteo físico), no un delta.
type CorrectionRequest struct {
	ProductID   string          `json:"product_id" validate:"max=64"`
	TargetStock decimal.Decimal `json:"target_stock"`
	Reason      string          `json:"reason" validate:"max=255"`
	Notes       string          `json:"notes,omitempty" validate:"max=1000"`
}

// MovementResponse salida de un movimiento del libro.
// En ajustes quantity es la magnitud; delta conserva el signo.
type MovementResponse struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"product_id"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Delta       decimal.Decimal  `json:"delta"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	ActorID     string           `json:"actor_id"`
	SupplierID  *string          `json:"supplier_id,omitempty"`
	StockBefore decimal.Decimal  `json:"stock_before"`
	StockAfter  decimal.Decimal  `json:"stock_after"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MovementListResponse lista de movimientos (orden: más reciente primero).
type MovementListResponse struct {
	Total int                `json:"total"`
	Items []MovementResponse `json:"items"`
}

// StockAlertDTO producto fuera de sus umbrales informativos.
type StockAlertDTO struct {
	ProductID    string           `json:"product_id"`
	Code         string           `json:"code"`
	ProductName  string           `json:"product_name"`
	UnitMeasure  string           `json:"unit_measure"`
	StockCurrent decimal.Decimal  `json:"stock_current"`
	StockMin     *decimal.Decimal `json:"stock_min,omitempty"`
	StockMax     *decimal.Decimal `json:"stock_max,omitempty"`
	Level        string           `json:"level"`               // LOW | OVER
	SuggestedQty decimal.Decimal  `json:"suggested_order_qty"` // StockMax (o StockMin) - StockCurrent para LOW
}

// StockStatusResponse estado del stock de un producto frente a su último movimiento.
// Consistent es false si stock_current no coincide con el stock_after del último movimiento.
type StockStatusResponse struct {
	ProductID    string            `json:"product_id"`
	Code         string            `json:"code"`
	StockCurrent decimal.Decimal   `json:"stock_current"`
	Level        string            `json:"level"` // OK | LOW | OVER
	LastMovement *MovementResponse `json:"last_movement,omitempty"`
	Consistent   bool              `json:"consistent"`
}
