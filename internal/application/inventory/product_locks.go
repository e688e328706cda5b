package inventory

import (
	"context"
	"sync"
)

// ProductLocks serializa los movimientos de un mismo producto dentro del proceso.
// Productos distintos no se bloquean entre sí. Entre procesos la serialización
// la garantiza el bloqueo de fila en la base de datos.
type ProductLocks struct {
	mu    sync.Mutex
	locks map[string]*productLock
}

type productLock struct {
	ch   chan struct{}
	refs int
}

// NewProductLocks construye el registro de bloqueos.
func NewProductLocks() *ProductLocks {
	return &ProductLocks{locks: make(map[string]*productLock)}
}

// Lock espera el turno del producto o hasta que ctx termine.
// Devuelve la función que libera el bloqueo.
func (l *ProductLocks) Lock(ctx context.Context, productID string) (func(), error) {
	l.mu.Lock()
	pl, ok := l.locks[productID]
	if !ok {
		pl = &productLock{ch: make(chan struct{}, 1)}
		l.locks[productID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
		return func() {
			<-pl.ch
			l.release(productID, pl)
		}, nil
	case <-ctx.Done():
		l.release(productID, pl)
		return nil, ctx.Err()
	}
}

func (l *ProductLocks) release(productID string, pl *productLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, productID)
	}
}

// Len cantidad de productos con bloqueo activo o en espera.
func (l *ProductLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
