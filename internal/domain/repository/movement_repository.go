package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
)

// MovementFilter filtros de consulta del libro. Campos vacíos/nil no filtran.
// From y To son inclusivos.
type MovementFilter struct {
	ProductID string
	Type      string
	From      *time.Time
	To        *time.Time
}

// MovementRepository define el puerto de persistencia del libro de movimientos.
// Solo inserta: los movimientos no se editan ni se eliminan.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// List devuelve los movimientos ordenados por fecha descendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// LatestByProduct último movimiento confirmado del producto (nil si no hay).
	LatestByProduct(ctx context.Context, productID string) (*entity.Movement, error)
}
