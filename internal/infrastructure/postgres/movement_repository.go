package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, type, quantity, delta, unit_price, reason, notes, actor_id, supplier_id::text,
	stock_before, stock_after, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo inserta.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento del libro. created_at lo asigna la base de datos
// (clock_timestamp) y se devuelve en m.CreatedAt: todos los procesos comparten un reloj.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (id, product_id, type, quantity, delta, unit_price, reason, notes, actor_id, supplier_id, stock_before, stock_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, clock_timestamp())
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Type, m.Quantity, m.Delta, m.UnitPrice, m.Reason, m.Notes,
		m.ActorID, m.SupplierID, m.StockBefore, m.StockAfter,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	row := r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List movimientos que cumplen el filtro, más reciente primero (empate por seq de inserción).
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE TRUE`
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		// un ID que no es UUID no tiene movimientos
		pid, err := uuid.Parse(f.ProductID)
		if err != nil {
			return []*entity.Movement{}, nil
		}
		query += fmt.Sprintf(" AND product_id = $%d::uuid", pos)
		args = append(args, pid.String())
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
	}
	query += " ORDER BY created_at DESC, seq DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// LatestByProduct último movimiento del producto (nil si no hay).
func (r *MovementRepo) LatestByProduct(ctx context.Context, productID string) (*entity.Movement, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, nil
	}
	row := r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE product_id = $1::uuid ORDER BY created_at DESC, seq DESC LIMIT 1`, pid.String())
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest movement: %w", err)
	}
	return m, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Delta, &m.UnitPrice, &m.Reason, &m.Notes,
		&m.ActorID, &m.SupplierID, &m.StockBefore, &m.StockAfter, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
