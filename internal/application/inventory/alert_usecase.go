package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// StockAlertUseCase lista productos fuera de sus umbrales StockMin/StockMax.
// Es solo informativo: los umbrales nunca bloquean un movimiento.
type StockAlertUseCase struct {
	productRepo repository.ProductRepository
}

// NewStockAlertUseCase construye el caso de uso de alertas.
func NewStockAlertUseCase(productRepo repository.ProductRepository) *StockAlertUseCase {
	return &StockAlertUseCase{productRepo: productRepo}
}

// ListAlerts devuelve primero los productos con stock bajo (mayor déficit primero)
// y luego los sobre-abastecidos.
func (uc *StockAlertUseCase) ListAlerts(ctx context.Context) ([]dto.StockAlertDTO, error) {
	products, err := uc.productRepo.ListStockAlerts(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar alertas de stock", Err: err}
	}

	alerts := make([]dto.StockAlertDTO, 0, len(products))
	for _, p := range products {
		level := inventory.Classify(p.StockCurrent, p.StockMin, p.StockMax)
		if level == inventory.StockLevelOK {
			continue
		}
		a := dto.StockAlertDTO{
			ProductID:    p.ID,
			Code:         p.Code,
			ProductName:  p.Name,
			UnitMeasure:  p.UnitMeasure,
			StockCurrent: p.StockCurrent,
			StockMin:     p.StockMin,
			StockMax:     p.StockMax,
			Level:        level,
		}
		if level == inventory.StockLevelLow {
			a.SuggestedQty = suggestedOrderQty(p)
		}
		alerts = append(alerts, a)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Level != b.Level {
			return a.Level == inventory.StockLevelLow
		}
		if a.Level == inventory.StockLevelLow && a.StockMin != nil && b.StockMin != nil {
			defA := a.StockMin.Sub(a.StockCurrent)
			defB := b.StockMin.Sub(b.StockCurrent)
			if !defA.Equal(defB) {
				return defA.GreaterThan(defB)
			}
		}
		return a.Code < b.Code
	})
	return alerts, nil
}

// suggestedOrderQty cantidad para volver al máximo (o al mínimo si no hay máximo).
func suggestedOrderQty(p *entity.Product) decimal.Decimal {
	target := p.StockMin
	if p.StockMax != nil {
		target = p.StockMax
	}
	if target == nil {
		return decimal.Zero
	}
	q := target.Sub(p.StockCurrent)
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}
