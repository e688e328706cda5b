package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

var _ repository.AuditSink = (*AuditLog)(nil)

// AuditLog destino de auditoría en memoria.
type AuditLog struct {
	mu      sync.Mutex
	entries []entity.AuditEntry
	failErr error
}

// NewAuditLog construye el destino vacío.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// FailWith hace fallar todas las escrituras siguientes (nil restablece).
func (a *AuditLog) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failErr = err
}

// Record guarda la entrada.
func (a *AuditLog) Record(_ context.Context, e entity.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failErr != nil {
		return a.failErr
	}
	a.entries = append(a.entries, e)
	return nil
}

// Entries copia de las entradas registradas.
func (a *AuditLog) Entries() []entity.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]entity.AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
