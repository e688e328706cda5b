package inventory

import "github.com/shopspring/decimal"

// Cantidades y stock se guardan como NUMERIC(18,4).
const Scale = 4

// maxStock primer valor que no cabe en NUMERIC(18,4) (14 dígitos enteros).
var maxStock = decimal.New(1, 18-Scale)

// FitsScale indica si d no tiene más de Scale decimales significativos.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// InRange indica si d cabe en la parte entera de la columna.
func InRange(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxStock)
}
