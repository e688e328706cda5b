package inventory

import (
	"context"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
)

// RecordReceipt registra una entrada de compra (ENTRY); el proveedor es obligatorio.
func (uc *RecordMovementUseCase) RecordReceipt(ctx context.Context, actorID string, in dto.ReceiptRequest) (*entity.Movement, error) {
	supplierID := in.SupplierID
	return uc.RecordMovement(ctx, MovementInputDTO{
		ProductID:  in.ProductID,
		Type:       entity.MovementTypeEntry,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Reason:     in.Reason,
		ActorID:    actorID,
		SupplierID: &supplierID,
		Notes:      in.Notes,
	})
}

// RecordConsumption registra una salida por consumo (EXIT).
func (uc *RecordMovementUseCase) RecordConsumption(ctx context.Context, actorID string, in dto.ConsumptionRequest) (*entity.Movement, error) {
	return uc.RecordMovement(ctx, MovementInputDTO{
		ProductID: in.ProductID,
		Type:      entity.MovementTypeExit,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		ActorID:   actorID,
		Notes:     in.Notes,
	})
}

// RecordCorrection registra un ajuste (ADJUSTMENT) que lleva el stock al nivel contado.
func (uc *RecordMovementUseCase) RecordCorrection(ctx context.Context, actorID string, in dto.CorrectionRequest) (*entity.Movement, error) {
	return uc.RecordMovement(ctx, MovementInputDTO{
		ProductID: in.ProductID,
		Type:      entity.MovementTypeAdjustment,
		Quantity:  in.TargetStock,
		Reason:    in.Reason,
		ActorID:   actorID,
		Notes:     in.Notes,
	})
}

// RecordMovementFromRequest adapta el request HTTP genérico (tipo en el body).
func (uc *RecordMovementUseCase) RecordMovementFromRequest(ctx context.Context, actorID string, in dto.RegisterMovementRequest) (*entity.Movement, error) {
	return uc.RecordMovement(ctx, MovementInputDTO{
		ProductID:  in.ProductID,
		Type:       in.Type,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Reason:     in.Reason,
		ActorID:    actorID,
		SupplierID: in.SupplierID,
		Notes:      in.Notes,
	})
}

// ToMovementResponse mapea la entidad al DTO de salida.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Delta:       m.Delta,
		UnitPrice:   m.UnitPrice,
		Reason:      m.Reason,
		Notes:       m.Notes,
		ActorID:     m.ActorID,
		SupplierID:  m.SupplierID,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		CreatedAt:   m.CreatedAt,
	}
}

// ToMovementListResponse mapea una lista de movimientos (nunca items nil).
func ToMovementListResponse(list []*entity.Movement) dto.MovementListResponse {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return dto.MovementListResponse{Total: len(items), Items: items}
}
