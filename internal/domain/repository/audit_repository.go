package repository

import (
	"context"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
)

// AuditSink recibe las notificaciones de auditoría del libro (fire-and-forget).
type AuditSink interface {
	Record(ctx context.Context, entry entity.AuditEntry) error
}
