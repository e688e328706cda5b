package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/memory"
)

const (
	productID  = "0b9e6c0e-1111-4000-8000-000000000001"
	actorID    = "0b9e6c0e-2222-4000-8000-000000000001"
	supplierID = "0b9e6c0e-3333-4000-8000-000000000001"
)

type fixture struct {
	store *memory.Store
	audit *memory.AuditLog
	uc    *inventory.RecordMovementUseCase
	query *inventory.MovementQueryUseCase
}

func newFixture(t *testing.T, stock int64) *fixture {
	t.Helper()
	s := memory.NewStore()
	s.AddProduct(entity.Product{
		ID: productID, Code: "GUANTE-M", Name: "Guantes de nitrilo M", UnitMeasure: "caja",
		StockCurrent: decimal.NewFromInt(stock), Active: true,
	})
	s.AddActor(entity.Actor{ID: actorID, Name: "Enfermera Jefe", Role: entity.RoleInventory, Status: entity.ActorActive})
	s.AddSupplier(entity.Supplier{ID: supplierID, Name: "Distribuidora Médica", Active: true})

	audit := memory.NewAuditLog()
	uc := inventory.NewRecordMovementUseCase(
		s,
		memory.NewProductRepository(s),
		memory.NewActorRepository(s),
		memory.NewSupplierRepository(s),
		audit,
		nil,
		inventory.LedgerOptions{},
	)
	return &fixture{store: s, audit: audit, uc: uc, query: inventory.NewMovementQueryUseCase(memory.NewMovementRepository(s))}
}

func (f *fixture) stock(t *testing.T) decimal.Decimal {
	t.Helper()
	p, err := memory.NewProductRepository(f.store).GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockCurrent
}

func (f *fixture) movements(t *testing.T) []*entity.Movement {
	t.Helper()
	list, err := f.query.ByProduct(context.Background(), productID)
	require.NoError(t, err)
	return list
}

// assertInvariant stockCurrent == stockAfter del último movimiento y nunca negativo.
func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	latest, err := memory.NewMovementRepository(f.store).LatestByProduct(context.Background(), productID)
	require.NoError(t, err)
	current := f.stock(t)
	assert.False(t, current.IsNegative(), "el stock nunca debe ser negativo")
	if latest != nil {
		assert.True(t, latest.StockAfter.Equal(current), "stock %s != stockAfter %s", current, latest.StockAfter)
	}
}

func sup(id string) *string { return &id }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRecordMovement_Entrada(t *testing.T) {
	f := newFixture(t, 10)
	price := decimal.RequireFromString("1250.50")

	m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(5),
		UnitPrice: &price, ActorID: actorID, SupplierID: sup(supplierID), Reason: "compra OC-118",
	})
	require.NoError(t, err)
	assert.True(t, m.StockBefore.Equal(dec(10)))
	assert.True(t, m.StockAfter.Equal(dec(15)))
	assert.True(t, m.Quantity.Equal(dec(5)))
	require.NotNil(t, m.SupplierID)
	assert.Equal(t, supplierID, *m.SupplierID)
	assert.False(t, m.CreatedAt.IsZero())
	assert.True(t, f.stock(t).Equal(dec(15)))
	f.assertInvariant(t)
}

func TestRecordMovement_SalidaExitosa(t *testing.T) {
	f := newFixture(t, 10)

	m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(4), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.True(t, m.StockBefore.Equal(dec(10)))
	assert.True(t, m.StockAfter.Equal(dec(6)))
	assert.True(t, f.stock(t).Equal(dec(6)))
	f.assertInvariant(t)
}

func TestRecordMovement_SalidaRechazadaPorStock(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(5), ActorID: actorID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.True(t, ise.Available.Equal(dec(3)))
	assert.True(t, ise.Requested.Equal(dec(5)))

	assert.True(t, f.stock(t).Equal(dec(3)), "el stock no debe cambiar")
	assert.Empty(t, f.movements(t), "no debe registrarse movimiento")
	assert.Empty(t, f.audit.Entries())
}

func TestRecordMovement_Ajuste(t *testing.T) {
	t.Run("hacia arriba", func(t *testing.T) {
		f := newFixture(t, 8)
		m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
			ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: dec(20), ActorID: actorID,
		})
		require.NoError(t, err)
		assert.True(t, m.StockAfter.Equal(dec(20)))
		assert.True(t, m.Quantity.Equal(dec(12)))
		assert.True(t, m.Delta.Equal(dec(12)))
		f.assertInvariant(t)
	})
	t.Run("hacia abajo", func(t *testing.T) {
		f := newFixture(t, 8)
		m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
			ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: dec(3), ActorID: actorID,
		})
		require.NoError(t, err)
		assert.True(t, m.StockAfter.Equal(dec(3)))
		assert.True(t, m.Quantity.Equal(dec(5)))
		assert.True(t, m.Delta.Equal(dec(-5)))
		f.assertInvariant(t)
	})
	t.Run("a cero", func(t *testing.T) {
		f := newFixture(t, 8)
		m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
			ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: decimal.Zero, ActorID: actorID,
		})
		require.NoError(t, err)
		assert.True(t, m.StockAfter.IsZero())
	})
}

func TestRecordMovement_ReglasDeProveedor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	_, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), ActorID: actorID,
	})
	assertRule(t, err, domain.RuleSupplierRequired)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), ActorID: actorID, SupplierID: sup("  "),
	})
	assertRule(t, err, domain.RuleSupplierRequired)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(1), ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleSupplierForbidden)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: dec(1), ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleSupplierForbidden)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), ActorID: actorID, SupplierID: sup("no-existe"),
	})
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "proveedor", nf.Entity)

	assert.True(t, f.stock(t).Equal(dec(10)))
	assert.Empty(t, f.movements(t))
}

func TestRecordMovement_OrdenDeValidacion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	// producto inexistente gana sobre actor inexistente y regla de proveedor
	_, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: "no-existe", Type: entity.MovementTypeEntry, Quantity: dec(1), ActorID: "tampoco",
	})
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "producto", nf.Entity)

	// actor inexistente gana sobre regla de proveedor
	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), ActorID: "tampoco",
	})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "actor", nf.Entity)

	// regla de proveedor gana sobre cantidad inválida
	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(-1), ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleSupplierForbidden)
}

func TestRecordMovement_CantidadYTipoInvalidos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	_, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: "TRANSFER", Quantity: dec(1), ActorID: actorID,
	})
	assertRule(t, err, domain.RuleInvalidType)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.Zero, ActorID: actorID,
	})
	assertRule(t, err, domain.RuleInvalidQuantity)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: dec(-2), ActorID: actorID,
	})
	assertRule(t, err, domain.RuleInvalidQuantity)

	neg := dec(-10)
	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), UnitPrice: &neg, ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleInvalidUnitPrice)

	// tipo en minúsculas se normaliza
	m, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: " exit ", Quantity: dec(1), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeExit, m.Type)
}

func TestRecordMovement_PrecisionDeCuatroDecimales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	_, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: decimal.RequireFromString("0.00015"), ActorID: actorID,
	})
	assertRule(t, err, domain.RuleQuantityPrecision)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.RequireFromString("0.00004"), ActorID: actorID,
	})
	assertRule(t, err, domain.RuleQuantityPrecision)

	price := decimal.RequireFromString("10.12345")
	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: dec(1), UnitPrice: &price, ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleInvalidUnitPrice)

	_, err = f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: decimal.New(1, 14), ActorID: actorID, SupplierID: sup(supplierID),
	})
	assertRule(t, err, domain.RuleStockOutOfRange)

	assert.True(t, f.stock(t).Equal(dec(10)))
	assert.Empty(t, f.movements(t))

	m, err := f.uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.RequireFromString("0.0005"), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.True(t, m.StockAfter.Equal(decimal.RequireFromString("9.9995")))
	f.assertInvariant(t)
}

func TestRecordMovement_FalloDePersistenciaNoDejaEstadoParcial(t *testing.T) {
	for _, op := range []string{memory.OpCreateMovement, memory.OpSetStock, memory.OpCommit} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t, 10)
			f.store.InjectFault(op, errors.New("disco lleno"))

			_, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
				ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(4), ActorID: actorID,
			})
			require.ErrorIs(t, err, domain.ErrPersistence)
			var pe *domain.PersistenceError
			require.True(t, errors.As(err, &pe))
			assert.True(t, pe.Retryable())

			assert.True(t, f.stock(t).Equal(dec(10)))
			assert.Empty(t, f.movements(t))
			assert.Empty(t, f.audit.Entries())

			// reintentar la llamada completa es seguro
			m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
				ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(4), ActorID: actorID,
			})
			require.NoError(t, err)
			assert.True(t, m.StockAfter.Equal(dec(6)))
			f.assertInvariant(t)
		})
	}
}

func TestRecordMovement_TimeoutDeCommitEsTransitorio(t *testing.T) {
	s := memory.NewStore()
	s.AddProduct(entity.Product{ID: productID, Code: "X", StockCurrent: dec(10), Active: true})
	s.AddActor(entity.Actor{ID: actorID})
	s.SetCommitDelay(500 * time.Millisecond)
	uc := inventory.NewRecordMovementUseCase(s, memory.NewProductRepository(s), memory.NewActorRepository(s),
		memory.NewSupplierRepository(s), nil, nil, inventory.LedgerOptions{CommitTimeout: 20 * time.Millisecond})

	_, err := uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(1), ActorID: actorID,
	})
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p, _ := memory.NewProductRepository(s).GetByID(context.Background(), productID)
	assert.True(t, p.StockCurrent.Equal(dec(10)))
	list, _ := memory.NewMovementRepository(s).List(context.Background(), repository.MovementFilter{})
	assert.Empty(t, list)
}

func TestRecordMovement_Auditoria(t *testing.T) {
	f := newFixture(t, 10)
	m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(2), ActorID: actorID, Reason: "curación sala 3",
	})
	require.NoError(t, err)

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionCreated, entries[0].Action)
	assert.Equal(t, entity.AuditEntityMovement, entries[0].Entity)
	assert.Equal(t, m.ID, entries[0].EntityID)
	assert.Equal(t, actorID, entries[0].ActorID)
	assert.Equal(t, "8", entries[0].Payload["stock_after"])
	assert.Equal(t, "curación sala 3", entries[0].Payload["reason"])
}

func TestRecordMovement_FalloDeAuditoriaNoAfectaMovimiento(t *testing.T) {
	f := newFixture(t, 10)
	f.audit.FailWith(errors.New("redis caído"))

	m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(2), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.True(t, m.StockAfter.Equal(dec(8)))
	assert.True(t, f.stock(t).Equal(dec(8)))
}

func TestRecordMovement_ProductoInactivoSeAcepta(t *testing.T) {
	f := newFixture(t, 10)
	f.store.AddProduct(entity.Product{ID: productID, Code: "GUANTE-M", StockCurrent: dec(10), Active: false})

	m, err := f.uc.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: dec(1), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.True(t, m.StockAfter.Equal(dec(9)))
}

func TestCallSites_FijanElTipo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	m, err := f.uc.RecordReceipt(ctx, actorID, dto.ReceiptRequest{ProductID: productID, Quantity: dec(5), SupplierID: supplierID})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeEntry, m.Type)
	assert.True(t, m.StockAfter.Equal(dec(15)))

	m, err = f.uc.RecordConsumption(ctx, actorID, dto.ConsumptionRequest{ProductID: productID, Quantity: dec(3)})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeExit, m.Type)
	assert.True(t, m.StockAfter.Equal(dec(12)))

	m, err = f.uc.RecordCorrection(ctx, actorID, dto.CorrectionRequest{ProductID: productID, TargetStock: dec(11), Reason: "conteo mensual"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeAdjustment, m.Type)
	assert.True(t, m.Quantity.Equal(dec(1)))
	assert.True(t, m.Delta.Equal(dec(-1)))

	_, err = f.uc.RecordMovementFromRequest(ctx, actorID, dto.RegisterMovementRequest{ProductID: productID, Type: "ENTRY", Quantity: dec(1)})
	assertRule(t, err, domain.RuleSupplierRequired)

	list := f.movements(t)
	require.Len(t, list, 3)
	assert.Equal(t, entity.MovementTypeAdjustment, list[0].Type)
	f.assertInvariant(t)

	resp := inventory.ToMovementListResponse(list)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, list[0].ID, resp.Items[0].ID)
}

func assertRule(t *testing.T, err error, rule string) {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrBusinessRule)
	var bre *domain.BusinessRuleError
	require.True(t, errors.As(err, &bre))
	assert.Equal(t, rule, bre.Rule)
}
