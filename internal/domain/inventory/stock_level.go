package inventory

import "github.com/shopspring/decimal"

// Estados de nivel de stock (solo informativos).
const (
	StockLevelOK   = "OK"
	StockLevelLow  = "LOW"
	StockLevelOver = "OVER"
)

// Classify compara el stock actual con los umbrales opcionales del producto.
// Un umbral nil no se evalúa.
func Classify(current decimal.Decimal, min, max *decimal.Decimal) string {
	if min != nil && current.LessThan(*min) {
		return StockLevelLow
	}
	if max != nil && current.GreaterThan(*max) {
		return StockLevelOver
	}
	return StockLevelOK
}
