package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// StockStatusUseCase concilia el stock de un producto con su último movimiento.
type StockStatusUseCase struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
}

// NewStockStatusUseCase construye el caso de uso.
func NewStockStatusUseCase(productRepo repository.ProductRepository, movementRepo repository.MovementRepository) *StockStatusUseCase {
	return &StockStatusUseCase{productRepo: productRepo, movementRepo: movementRepo}
}

// Check devuelve el stock actual, su nivel y si coincide con el stock_after del último
// movimiento. Un producto sin movimientos se considera consistente (stock inicial).
func (uc *StockStatusUseCase) Check(ctx context.Context, productID string) (*dto.StockStatusResponse, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "consultar producto", Err: err}
	}
	if p == nil {
		return nil, domain.NewNotFound("producto", productID)
	}
	latest, err := uc.movementRepo.LatestByProduct(ctx, productID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "consultar último movimiento", Err: err}
	}

	out := &dto.StockStatusResponse{
		ProductID:    p.ID,
		Code:         p.Code,
		StockCurrent: p.StockCurrent,
		Level:        inventory.Classify(p.StockCurrent, p.StockMin, p.StockMax),
		Consistent:   true,
	}
	if latest != nil {
		r := ToMovementResponse(latest)
		out.LastMovement = &r
		out.Consistent = latest.StockAfter.Equal(p.StockCurrent)
	}
	return out, nil
}
