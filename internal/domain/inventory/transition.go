package inventory

import (
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Transition resultado de aplicar un movimiento al stock actual (servicio de dominio).
type Transition struct {
	StockBefore decimal.Decimal
	StockAfter  decimal.Decimal
	Delta       decimal.Decimal // con signo
	Quantity    decimal.Decimal // cantidad a guardar en el movimiento
}

// Apply calcula el stock resultante según el tipo de movimiento:
//
//	ENTRY:      after = before + q
//	EXIT:       after = before - q (rechaza si queda negativo)
//	ADJUSTMENT: q es el nivel absoluto deseado; after = q, Quantity = |q - before|
//
// No valida existencia de referencias; eso lo hace el caso de uso.
func Apply(productID, movementType string, before, quantity decimal.Decimal) (Transition, error) {
	if quantity.IsNegative() {
		return Transition{}, domain.NewBusinessRule(domain.RuleInvalidQuantity)
	}
	if !FitsScale(quantity) {
		return Transition{}, domain.NewBusinessRule(domain.RuleQuantityPrecision)
	}
	tr, err := apply(productID, movementType, before, quantity)
	if err != nil {
		return Transition{}, err
	}
	if !InRange(tr.StockAfter) || !InRange(tr.Quantity) {
		return Transition{}, domain.NewBusinessRule(domain.RuleStockOutOfRange)
	}
	return tr, nil
}

func apply(productID, movementType string, before, quantity decimal.Decimal) (Transition, error) {
	switch movementType {
	case entity.MovementTypeEntry:
		if !quantity.IsPositive() {
			return Transition{}, domain.NewBusinessRule(domain.RuleInvalidQuantity)
		}
		return Transition{
			StockBefore: before,
			StockAfter:  before.Add(quantity),
			Delta:       quantity,
			Quantity:    quantity,
		}, nil
	case entity.MovementTypeExit:
		if !quantity.IsPositive() {
			return Transition{}, domain.NewBusinessRule(domain.RuleInvalidQuantity)
		}
		after := before.Sub(quantity)
		if after.IsNegative() {
			return Transition{}, &domain.InsufficientStockError{
				ProductID: productID,
				Available: before,
				Requested: quantity,
			}
		}
		return Transition{
			StockBefore: before,
			StockAfter:  after,
			Delta:       quantity.Neg(),
			Quantity:    quantity,
		}, nil
	case entity.MovementTypeAdjustment:
		delta := quantity.Sub(before)
		return Transition{
			StockBefore: before,
			StockAfter:  quantity,
			Delta:       delta,
			Quantity:    delta.Abs(),
		}, nil
	}
	return Transition{}, domain.NewBusinessRule(domain.RuleInvalidType)
}
