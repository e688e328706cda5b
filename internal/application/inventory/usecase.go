package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/pkg/logger"
)

// Valores por defecto del libro.
const (
	DefaultCommitTimeout = 5 * time.Second
	DefaultAuditTimeout  = 2 * time.Second
)

// LedgerOptions parámetros opcionales del caso de uso.
type LedgerOptions struct {
	CommitTimeout time.Duration
	AuditTimeout  time.Duration
	Clock         func() time.Time // por defecto time.Now().UTC()
}

// RecordMovementUseCase es el motor del libro de stock: valida, calcula el stock
// resultante y confirma movimiento + stock del producto en una sola transacción.
type RecordMovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	actorRepo     repository.ActorRepository
	supplierRepo  repository.SupplierRepository
	audit         repository.AuditSink
	locks         *ProductLocks
	log           *logger.Logger
	commitTimeout time.Duration
	auditTimeout  time.Duration
	now           func() time.Time
}

// NewRecordMovementUseCase construye el caso de uso. audit puede ser nil.
func NewRecordMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	actorRepo repository.ActorRepository,
	supplierRepo repository.SupplierRepository,
	audit repository.AuditSink,
	log *logger.Logger,
	opts LedgerOptions,
) *RecordMovementUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	if opts.AuditTimeout <= 0 {
		opts.AuditTimeout = DefaultAuditTimeout
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &RecordMovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		actorRepo:     actorRepo,
		supplierRepo:  supplierRepo,
		audit:         audit,
		locks:         NewProductLocks(),
		log:           log.Named("ledger"),
		commitTimeout: opts.CommitTimeout,
		auditTimeout:  opts.AuditTimeout,
		now:           opts.Clock,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// En ADJUSTMENT Quantity es el nivel absoluto deseado; SupplierID solo en ENTRY.
type MovementInputDTO struct {
	ProductID  string
	Type       string
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
	Reason     string
	ActorID    string
	SupplierID *string
	Notes      string
}

// RecordMovement valida en orden (tipo, producto, actor, proveedor, cantidad),
// serializa por producto y confirma el movimiento junto con el stock del producto.
// Los rechazos no modifican nada; los fallos de infraestructura se devuelven
// como *domain.PersistenceError (reintentables).
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, input MovementInputDTO) (*entity.Movement, error) {
	input.Type = strings.ToUpper(strings.TrimSpace(input.Type))
	if !entity.ValidMovementType(input.Type) {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleInvalidType))
	}
	if input.ProductID == "" {
		return nil, uc.reject(input, domain.NewNotFound("producto", input.ProductID))
	}

	// 1. Producto
	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, uc.persistence("consultar producto", err)
	}
	if product == nil {
		return nil, uc.reject(input, domain.NewNotFound("producto", input.ProductID))
	}
	if !product.Active {
		uc.log.Warn().Str("product_id", product.ID).Str("type", input.Type).
			Msg("movimiento sobre producto inactivo")
	}

	// 2. Actor
	actor, err := uc.actorRepo.GetByID(ctx, input.ActorID)
	if err != nil {
		return nil, uc.persistence("consultar actor", err)
	}
	if actor == nil {
		return nil, uc.reject(input, domain.NewNotFound("actor", input.ActorID))
	}

	// 3-4. Proveedor: obligatorio en ENTRY, prohibido en el resto
	supplierID := normalizeID(input.SupplierID)
	if input.Type == entity.MovementTypeEntry {
		if supplierID == nil {
			return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleSupplierRequired))
		}
		supplier, err := uc.supplierRepo.GetByID(ctx, *supplierID)
		if err != nil {
			return nil, uc.persistence("consultar proveedor", err)
		}
		if supplier == nil {
			return nil, uc.reject(input, domain.NewNotFound("proveedor", *supplierID))
		}
	} else if supplierID != nil {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleSupplierForbidden))
	}

	// 5. Cantidad y precio
	if input.Quantity.IsNegative() ||
		(input.Type != entity.MovementTypeAdjustment && !input.Quantity.IsPositive()) {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleInvalidQuantity))
	}
	if !inventory.FitsScale(input.Quantity) {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleQuantityPrecision))
	}
	if !inventory.InRange(input.Quantity) {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleStockOutOfRange))
	}
	if input.UnitPrice != nil &&
		(input.UnitPrice.IsNegative() || !inventory.FitsScale(*input.UnitPrice) || !inventory.InRange(*input.UnitPrice)) {
		return nil, uc.reject(input, domain.NewBusinessRule(domain.RuleInvalidUnitPrice))
	}

	unlock, err := uc.locks.Lock(ctx, input.ProductID)
	if err != nil {
		return nil, uc.persistence("esperar turno del producto", err)
	}
	defer unlock()

	movement, err := uc.commit(ctx, input, supplierID)
	if err != nil {
		if domain.IsDomainError(err) {
			return nil, uc.reject(input, err)
		}
		return nil, uc.persistence("confirmar movimiento", err)
	}

	uc.log.Info().
		Str("movement_id", movement.ID).
		Str("product_id", movement.ProductID).
		Str("type", movement.Type).
		Str("stock_before", movement.StockBefore.String()).
		Str("stock_after", movement.StockAfter.String()).
		Msg("movimiento registrado")

	uc.emitAudit(ctx, movement)
	return movement, nil
}

// commit ejecuta la unidad atómica: relee el stock bajo bloqueo de fila, aplica la
// transición, inserta el movimiento y actualiza el stock del producto.
func (uc *RecordMovementUseCase) commit(ctx context.Context, input MovementInputDTO, supplierID *string) (*entity.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.commitTimeout)
	defer cancel()

	var movement *entity.Movement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NewNotFound("producto", input.ProductID)
		}

		tr, err := inventory.Apply(product.ID, input.Type, product.StockCurrent, input.Quantity)
		if err != nil {
			return err
		}

		m := &entity.Movement{
			ID:          newMovementID(),
			ProductID:   product.ID,
			Type:        input.Type,
			Quantity:    tr.Quantity,
			Delta:       tr.Delta,
			UnitPrice:   input.UnitPrice,
			Reason:      strings.TrimSpace(input.Reason),
			Notes:       strings.TrimSpace(input.Notes),
			ActorID:     input.ActorID,
			SupplierID:  supplierID,
			StockBefore: tr.StockBefore,
			StockAfter:  tr.StockAfter,
			CreatedAt:   uc.now(), // PostgreSQL lo reemplaza por su propio reloj al insertar
		}
		if err := movRepo.Create(ctx, m); err != nil {
			return err
		}
		if err := productRepo.SetCurrentStock(ctx, product.ID, tr.StockAfter); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// emitAudit notifica created:<Movement>. Un fallo del destino de auditoría se registra
// en el log pero no afecta al movimiento, que ya está confirmado.
func (uc *RecordMovementUseCase) emitAudit(ctx context.Context, m *entity.Movement) {
	if uc.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.auditTimeout)
	defer cancel()

	entry := entity.AuditEntry{
		Action:   entity.AuditActionCreated,
		Entity:   entity.AuditEntityMovement,
		EntityID: m.ID,
		ActorID:  m.ActorID,
		Payload:  MovementPayload(m),
		At:       m.CreatedAt,
	}
	if err := uc.audit.Record(ctx, entry); err != nil {
		uc.log.Warn().Err(err).Str("movement_id", m.ID).Msg("auditoría no registrada")
	}
}

func (uc *RecordMovementUseCase) reject(input MovementInputDTO, err error) error {
	uc.log.Debug().Err(err).
		Str("product_id", input.ProductID).
		Str("type", input.Type).
		Str("quantity", input.Quantity.String()).
		Msg("movimiento rechazado")
	return err
}

func (uc *RecordMovementUseCase) persistence(op string, err error) error {
	uc.log.Error().Err(err).Str("op", op).Msg("fallo de persistencia en el libro de stock")
	return &domain.PersistenceError{Op: op, Err: err}
}

// MovementPayload representación plana del movimiento para auditoría.
func MovementPayload(m *entity.Movement) map[string]any {
	p := map[string]any{
		"id":           m.ID,
		"product_id":   m.ProductID,
		"type":         m.Type,
		"quantity":     m.Quantity.String(),
		"delta":        m.Delta.String(),
		"stock_before": m.StockBefore.String(),
		"stock_after":  m.StockAfter.String(),
		"actor_id":     m.ActorID,
		"reason":       m.Reason,
		"created_at":   m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.UnitPrice != nil {
		p["unit_price"] = m.UnitPrice.String()
	}
	if m.SupplierID != nil {
		p["supplier_id"] = *m.SupplierID
	}
	if m.Notes != "" {
		p["notes"] = m.Notes
	}
	return p
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	s := strings.TrimSpace(*id)
	if s == "" {
		return nil
	}
	return &s
}

// newMovementID usa UUIDv7 para que el orden por ID acompañe al orden temporal.
func newMovementID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
