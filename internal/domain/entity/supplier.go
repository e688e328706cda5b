package entity

import "time"

// Supplier representa un proveedor de insumos. Obligatorio en entradas de stock.
type Supplier struct {
	ID        string
	Name      string
	TaxID     string // NIT o documento del proveedor
	Email     string
	Phone     string
	Active    bool // baja lógica
	CreatedAt time.Time
	UpdatedAt time.Time
}
