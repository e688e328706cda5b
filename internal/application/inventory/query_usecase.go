package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// MovementQueryUseCase consultas de solo lectura sobre el libro de movimientos.
// Todas devuelven el orden más reciente primero y solo movimientos confirmados.
type MovementQueryUseCase struct {
	repo repository.MovementRepository
}

// NewMovementQueryUseCase construye el caso de uso de consultas.
func NewMovementQueryUseCase(repo repository.MovementRepository) *MovementQueryUseCase {
	return &MovementQueryUseCase{repo: repo}
}

// ByID un movimiento concreto (NotFound si no existe).
func (uc *MovementQueryUseCase) ByID(ctx context.Context, id string) (*entity.Movement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "consultar movimiento", Err: err}
	}
	if m == nil {
		return nil, domain.NewNotFound("movimiento", id)
	}
	return m, nil
}

// ByProduct historial de un producto.
func (uc *MovementQueryUseCase) ByProduct(ctx context.Context, productID string) ([]*entity.Movement, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.list(ctx, repository.MovementFilter{ProductID: productID})
}

// ByType movimientos de un tipo (ENTRY, EXIT, ADJUSTMENT).
func (uc *MovementQueryUseCase) ByType(ctx context.Context, movementType string) ([]*entity.Movement, error) {
	movementType = strings.ToUpper(strings.TrimSpace(movementType))
	if !entity.ValidMovementType(movementType) {
		return nil, domain.NewBusinessRule(domain.RuleInvalidType)
	}
	return uc.list(ctx, repository.MovementFilter{Type: movementType})
}

// ByDateRange movimientos con fecha en [from, to].
func (uc *MovementQueryUseCase) ByDateRange(ctx context.Context, from, to time.Time) ([]*entity.Movement, error) {
	if from.After(to) {
		return nil, domain.NewBusinessRule(domain.RuleInvalidDateRange)
	}
	return uc.list(ctx, repository.MovementFilter{From: &from, To: &to})
}

// ByProductAndDateRange historial de un producto con fecha en [from, to].
func (uc *MovementQueryUseCase) ByProductAndDateRange(ctx context.Context, productID string, from, to time.Time) ([]*entity.Movement, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if from.After(to) {
		return nil, domain.NewBusinessRule(domain.RuleInvalidDateRange)
	}
	return uc.list(ctx, repository.MovementFilter{ProductID: productID, From: &from, To: &to})
}

// MovementCriteria combinación de filtros; los vacíos no filtran.
type MovementCriteria struct {
	ProductID string
	Type      string
	From      *time.Time
	To        *time.Time
}

// Search aplica todos los filtros indicados a la vez (p. ej. producto + tipo + rango).
// Exige al menos un filtro; from y to van juntos.
func (uc *MovementQueryUseCase) Search(ctx context.Context, c MovementCriteria) ([]*entity.Movement, error) {
	filter := repository.MovementFilter{ProductID: strings.TrimSpace(c.ProductID)}
	if c.Type != "" {
		filter.Type = strings.ToUpper(strings.TrimSpace(c.Type))
		if !entity.ValidMovementType(filter.Type) {
			return nil, domain.NewBusinessRule(domain.RuleInvalidType)
		}
	}
	if (c.From == nil) != (c.To == nil) {
		return nil, domain.ErrInvalidInput
	}
	if c.From != nil {
		if c.From.After(*c.To) {
			return nil, domain.NewBusinessRule(domain.RuleInvalidDateRange)
		}
		filter.From, filter.To = c.From, c.To
	}
	if filter.ProductID == "" && filter.Type == "" && filter.From == nil {
		return nil, domain.ErrInvalidInput
	}
	return uc.list(ctx, filter)
}

func (uc *MovementQueryUseCase) list(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "consultar movimientos", Err: err}
	}
	if list == nil {
		list = []*entity.Movement{}
	}
	return list, nil
}
