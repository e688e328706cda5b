// Package memory implementa los puertos de persistencia en memoria.
// Se usa en desarrollo local (APP_STORAGE=memory) y en tests; respeta la misma
// semántica transaccional que PostgreSQL: nada se publica hasta el commit y
// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// Operaciones donde se puede inyectar un fallo (tests).
const (
	OpCreateMovement = "movement.create"
	OpSetStock       = "product.set_stock"
	OpCommit         = "commit"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store datos en memoria. Los valores se copian al entrar y salir.
type Store struct {
	mu        sync.RWMutex
	products  map[string]entity.Product
	actors    map[string]entity.Actor
	suppliers map[string]entity.Supplier
	movements []storedMovement
	seq       int64

	rowMu sync.Mutex
	rows  map[string]*rowLock

	faultMu     sync.Mutex
	faults      map[string]error
	commitDelay time.Duration
}

// rowLock bloqueo de fila con contador de transacciones que lo usan o esperan.
type rowLock struct {
	mu   sync.Mutex
	refs int
}

type storedMovement struct {
	seq int64
	m   entity.Movement
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]entity.Product),
		actors:    make(map[string]entity.Actor),
		suppliers: make(map[string]entity.Supplier),
		rows:      make(map[string]*rowLock),
		faults:    make(map[string]error),
	}
}

// AddProduct registra (o reemplaza) un producto; uso en seeds y tests.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddActor registra un actor en el directorio.
func (s *Store) AddActor(a entity.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[a.ID] = a
}

// AddSupplier registra un proveedor en el directorio.
func (s *Store) AddSupplier(sp entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sp.ID] = sp
}

// InjectFault hace fallar una única vez la operación op con err.
func (s *Store) InjectFault(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// SetCommitDelay retrasa cada commit (simula una base de datos lenta).
func (s *Store) SetCommitDelay(d time.Duration) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.commitDelay = d
}

func (s *Store) takeFault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	err := s.faults[op]
	delete(s.faults, op)
	return err
}

func (s *Store) acquireRow(productID string) *rowLock {
	s.rowMu.Lock()
	rl, ok := s.rows[productID]
	if !ok {
		rl = &rowLock{}
		s.rows[productID] = rl
	}
	rl.refs++
	s.rowMu.Unlock()

	rl.mu.Lock()
	return rl
}

// releaseRow libera la fila y la olvida cuando nadie más la usa.
func (s *Store) releaseRow(productID string, rl *rowLock) {
	rl.mu.Unlock()
	s.rowMu.Lock()
	defer s.rowMu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(s.rows, productID)
	}
}

// RowLocks número de filas con bloqueo tomado o en espera.
func (s *Store) RowLocks() int {
	s.rowMu.Lock()
	defer s.rowMu.Unlock()
	return len(s.rows)
}

// tx cambios pendientes de una transacción.
type tx struct {
	store     *Store
	locked    map[string]*rowLock
	stock     map[string]decimal.Decimal
	movements []entity.Movement
}

func (t *tx) lockRow(productID string) {
	if _, ok := t.locked[productID]; ok {
		return
	}
	t.locked[productID] = t.store.acquireRow(productID)
}

func (t *tx) releaseRows() {
	for id, rl := range t.locked {
		t.store.releaseRow(id, rl)
	}
}

// Run ejecuta fn en una transacción: los cambios se publican juntos al final
// o se descartan si fn, el commit o el contexto fallan.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	t := &tx{store: s, locked: make(map[string]*rowLock), stock: make(map[string]decimal.Decimal)}
	defer t.releaseRows()

	if err := fn(&MovementRepo{store: s, tx: t}, &ProductRepo{store: s, tx: t}); err != nil {
		return err
	}

	s.faultMu.Lock()
	delay := s.commitDelay
	s.faultMu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.takeFault(OpCommit); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range t.stock {
		if _, ok := s.products[id]; !ok {
			return domain.NewNotFound("producto", id)
		}
	}
	for id, qty := range t.stock {
		p := s.products[id]
		p.StockCurrent = qty
		p.UpdatedAt = time.Now().UTC()
		s.products[id] = p
	}
	for _, m := range t.movements {
		s.seq++
		s.movements = append(s.movements, storedMovement{seq: s.seq, m: m})
	}
	return nil
}

// sortMovements orden más reciente primero; empate por orden de inserción.
func sortMovements(list []storedMovement) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].m.CreatedAt.Equal(list[j].m.CreatedAt) {
			return list[i].m.CreatedAt.After(list[j].m.CreatedAt)
		}
		return list[i].seq > list[j].seq
	})
}
