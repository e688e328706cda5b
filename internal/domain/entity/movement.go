package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeEntry      = "ENTRY"      // entrada (recepción de compra)
	MovementTypeExit       = "EXIT"       // salida (consumo)
	MovementTypeAdjustment = "ADJUSTMENT" // ajuste a un nivel absoluto (conteo físico)
)

// ValidMovementType indica si t es uno de los tipos soportados.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment:
		return true
	}
	return false
}

// Movement es el registro inmutable de un cambio de stock.
// StockAfter == StockBefore + Delta. En ajustes Quantity guarda la magnitud
// de la corrección y Delta conserva el signo.
type Movement struct {
	ID          string
	ProductID   string
	Type        string
	Quantity    decimal.Decimal
	Delta       decimal.Decimal
	UnitPrice   *decimal.Decimal
	Reason      string
	Notes       string
	ActorID     string
	SupplierID  *string // solo en ENTRY
	StockBefore decimal.Decimal
	StockAfter  decimal.Decimal
	CreatedAt   time.Time
}
