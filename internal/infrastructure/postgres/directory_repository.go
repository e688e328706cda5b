package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

var (
	_ repository.ActorRepository    = (*ActorRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
)

// ActorRepo directorio de actores sobre la tabla users.
type ActorRepo struct {
	q Querier
}

// NewActorRepository construye el adaptador.
func NewActorRepository(q Querier) *ActorRepo {
	return &ActorRepo{q: q}
}

// Create persiste un actor (seeds y tests).
func (r *ActorRepo) Create(ctx context.Context, a *entity.Actor) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, name, email, role, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.Email, a.Role, a.Status, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un actor por ID (nil si no existe).
func (r *ActorRepo) GetByID(ctx context.Context, id string) (*entity.Actor, error) {
	var a entity.Actor
	err := r.q.QueryRow(ctx,
		`SELECT id, name, email, role, status, created_at FROM users WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &a, nil
}

// SupplierRepo directorio de proveedores.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// Create persiste un proveedor (seeds y tests).
func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO suppliers (id, name, tax_id, email, phone, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.TaxID, s.Email, s.Phone, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID obtiene un proveedor por ID (nil si no existe).
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.q.QueryRow(ctx,
		`SELECT id, name, COALESCE(tax_id, ''), COALESCE(email, ''), COALESCE(phone, ''), active, created_at, updated_at
		 FROM suppliers WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.TaxID, &s.Email, &s.Phone, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}
