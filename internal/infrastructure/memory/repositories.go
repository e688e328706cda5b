package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.MovementRepository = (*MovementRepo)(nil)
	_ repository.ActorRepository    = (*ActorRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
)

// ProductRepo registro de productos en memoria. Con tx != nil ve los cambios pendientes.
type ProductRepo struct {
	store *Store
	tx    *tx
}

// NewProductRepository repositorio fuera de transacción.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{store: s}
}

// Create registra un producto nuevo.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.store.products {
		if existing.Code == p.Code {
			return domain.ErrDuplicate
		}
	}
	r.store.products[p.ID] = *p
	return nil
}

// GetByID devuelve una copia del producto o nil.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.RLock()
	p, ok := r.store.products[id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if r.tx != nil {
		if qty, pending := r.tx.stock[id]; pending {
			p.StockCurrent = qty
		}
	}
	return &p, nil
}

// GetByCode busca un producto por código.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	r.store.mu.RLock()
	var id string
	for _, p := range r.store.products {
		if p.Code == code {
			id = p.ID
			break
		}
	}
	r.store.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		r.tx.lockRow(id)
	}
	return r.GetByID(ctx, id)
}

// SetCurrentStock deja el nuevo stock pendiente del commit (o lo aplica directo fuera de tx).
func (r *ProductRepo) SetCurrentStock(_ context.Context, id string, stock decimal.Decimal) error {
	if err := r.store.takeFault(OpSetStock); err != nil {
		return err
	}
	if r.tx != nil {
		r.tx.stock[id] = stock
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return domain.NewNotFound("producto", id)
	}
	p.StockCurrent = stock
	p.UpdatedAt = time.Now().UTC()
	r.store.products[id] = p
	return nil
}

// ListStockAlerts productos activos fuera de umbrales, por código.
func (r *ProductRepo) ListStockAlerts(_ context.Context) ([]*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		if !p.Active {
			continue
		}
		if inventory.Classify(p.StockCurrent, p.StockMin, p.StockMax) == inventory.StockLevelOK {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	sortProductsByCode(out)
	return out, nil
}

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct {
	store *Store
	tx    *tx
}

// NewMovementRepository repositorio de lectura fuera de transacción.
func NewMovementRepository(s *Store) *MovementRepo {
	return &MovementRepo{store: s}
}

// Create agrega el movimiento a la transacción en curso.
func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	if err := r.store.takeFault(OpCreateMovement); err != nil {
		return err
	}
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		r.store.seq++
		r.store.movements = append(r.store.movements, storedMovement{seq: r.store.seq, m: *m})
		return nil
	}
	r.tx.movements = append(r.tx.movements, *m)
	return nil
}

// GetByID devuelve un movimiento confirmado o nil.
func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, sm := range r.store.movements {
		if sm.m.ID == id {
			m := sm.m
			return &m, nil
		}
	}
	return nil, nil
}

// List movimientos confirmados que cumplen el filtro, más reciente primero.
func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	r.store.mu.RLock()
	matched := make([]storedMovement, 0)
	for _, sm := range r.store.movements {
		if matches(sm.m, f) {
			matched = append(matched, sm)
		}
	}
	r.store.mu.RUnlock()

	sortMovements(matched)
	out := make([]*entity.Movement, 0, len(matched))
	for i := range matched {
		m := matched[i].m
		out = append(out, &m)
	}
	return out, nil
}

// LatestByProduct último movimiento confirmado del producto.
func (r *MovementRepo) LatestByProduct(ctx context.Context, productID string) (*entity.Movement, error) {
	list, err := r.List(ctx, repository.MovementFilter{ProductID: productID})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func matches(m entity.Movement, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// ActorRepo directorio de actores en memoria.
type ActorRepo struct {
	store *Store
}

// NewActorRepository construye el directorio.
func NewActorRepository(s *Store) *ActorRepo {
	return &ActorRepo{store: s}
}

// GetByID devuelve el actor o nil.
func (r *ActorRepo) GetByID(_ context.Context, id string) (*entity.Actor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.actors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// SupplierRepo directorio de proveedores en memoria.
type SupplierRepo struct {
	store *Store
}

// NewSupplierRepository construye el directorio.
func NewSupplierRepository(s *Store) *SupplierRepo {
	return &SupplierRepo{store: s}
}

// GetByID devuelve el proveedor o nil.
func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	sp, ok := r.store.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func sortProductsByCode(list []*entity.Product) {
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
}
