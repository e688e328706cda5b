package inventory

import (
	"context"

	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el commit falla) no queda ningún efecto: ni movimiento ni stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}
