//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Clinica-api/pkg/config"
)

const (
	productID  = "0191f000-0000-7000-8000-000000000001"
	actorID    = "0191f000-0000-7000-8000-0000000000a1"
	supplierID = "0191f000-0000-7000-8000-0000000000b1"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("clinica_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn, nil))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool, stock int64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	min := decimal.NewFromInt(5)
	require.NoError(t, postgres.NewProductRepository(pool).Create(ctx, &entity.Product{
		ID: productID, Code: "GUANTE-M", Name: "Guantes de nitrilo M", UnitMeasure: "caja",
		StockCurrent: decimal.NewFromInt(stock), StockMin: &min, Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, postgres.NewActorRepository(pool).Create(ctx, &entity.Actor{
		ID: actorID, Name: "Jefe de bodega", Email: "bodega@clinica.test", Role: entity.RoleInventory,
		Status: entity.ActorActive, CreatedAt: now,
	}))
	require.NoError(t, postgres.NewSupplierRepository(pool).Create(ctx, &entity.Supplier{
		ID: supplierID, Name: "Distribuidora Médica", Active: true, CreatedAt: now, UpdatedAt: now,
	}))
}

func newUseCase(pool *pgxpool.Pool) *inventory.RecordMovementUseCase {
	return newUseCaseWithClock(pool, nil)
}

func newUseCaseWithClock(pool *pgxpool.Pool, clock func() time.Time) *inventory.RecordMovementUseCase {
	return inventory.NewRecordMovementUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewProductRepository(pool),
		postgres.NewActorRepository(pool),
		postgres.NewSupplierRepository(pool),
		postgres.NewAuditRepository(pool),
		nil,
		inventory.LedgerOptions{Clock: clock},
	)
}

func TestLedger_Postgres_FlujoCompleto(t *testing.T) {
	pool := newTestPool(t)
	seed(t, pool, 10)
	uc := newUseCase(pool)
	ctx := context.Background()
	sid := supplierID

	_, err := uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeEntry, Quantity: decimal.NewFromInt(5), ActorID: actorID, SupplierID: &sid,
	})
	require.NoError(t, err)
	_, err = uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(20), ActorID: actorID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	adj, err := uc.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeAdjustment, Quantity: decimal.NewFromInt(3), ActorID: actorID, Reason: "conteo",
	})
	require.NoError(t, err)
	assert.True(t, adj.Delta.Equal(decimal.NewFromInt(-12)))

	movements := postgres.NewMovementRepository(pool)
	list, err := movements.List(ctx, repository.MovementFilter{ProductID: productID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, adj.ID, list[0].ID)
	require.NotNil(t, list[1].SupplierID)
	assert.Equal(t, supplierID, *list[1].SupplierID)

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.StockCurrent.Equal(decimal.NewFromInt(3)))

	alerts, err := postgres.NewProductRepository(pool).ListStockAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	var audits int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs WHERE entity = 'movement'`).Scan(&audits))
	assert.Equal(t, 2, audits)

	unknown, err := postgres.NewProductRepository(pool).GetByID(ctx, "no-es-uuid")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

// Dos instancias del caso de uso (dos procesos) compiten por el mismo producto:
// solo el bloqueo de fila las serializa.
func TestLedger_Postgres_SalidasConcurrentesEntreProcesos(t *testing.T) {
	pool := newTestPool(t)
	seed(t, pool, 10)
	ctx := context.Background()

	var g errgroup.Group
	results := make([]error, 2)
	for i := range results {
		i := i
		uc := newUseCase(pool)
		g.Go(func() error {
			_, results[i] = uc.RecordMovement(ctx, inventory.MovementInputDTO{
				ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(7), ActorID: actorID,
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.StockCurrent.Equal(decimal.NewFromInt(3)))
}

func TestLedger_Postgres_LibroSoloInsercion(t *testing.T) {
	pool := newTestPool(t)
	seed(t, pool, 10)
	ctx := context.Background()

	m, err := newUseCase(pool).RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(1), ActorID: actorID,
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE inventory_movements SET quantity = 0 WHERE id = $1`, m.ID)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM inventory_movements WHERE id = $1`, m.ID)
	assert.Error(t, err)
}

// Un proceso con el reloj adelantado y otro atrasado: el orden del libro sigue al
// orden de confirmación porque created_at lo asigna la base de datos.
func TestLedger_Postgres_RelojesDesfasadosNoAlteranElOrden(t *testing.T) {
	pool := newTestPool(t)
	seed(t, pool, 10)
	ctx := context.Background()

	ahead := newUseCaseWithClock(pool, func() time.Time { return time.Now().Add(2 * time.Hour) })
	behind := newUseCaseWithClock(pool, func() time.Time { return time.Now().Add(-2 * time.Hour) })

	first, err := ahead.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(1), ActorID: actorID,
	})
	require.NoError(t, err)
	second, err := behind.RecordMovement(ctx, inventory.MovementInputDTO{
		ProductID: productID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(2), ActorID: actorID,
	})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.WithinDuration(t, time.Now(), second.CreatedAt, time.Minute)

	latest, err := postgres.NewMovementRepository(pool).LatestByProduct(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.StockCurrent.Equal(latest.StockAfter))

	list, err := postgres.NewMovementRepository(pool).List(ctx, repository.MovementFilter{ProductID: "no-es-uuid"})
	require.NoError(t, err)
	assert.Empty(t, list)
}
