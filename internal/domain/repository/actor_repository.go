package repository

import (
	"context"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
)

// ActorRepository directorio de personas que ejecutan movimientos.
type ActorRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Actor, error)
}
