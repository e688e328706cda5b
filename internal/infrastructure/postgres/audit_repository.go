package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

var _ repository.AuditSink = (*AuditRepo)(nil)

// AuditRepo escribe las notificaciones de auditoría en audit_logs.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el destino de auditoría en PostgreSQL.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Record persiste la entrada.
func (r *AuditRepo) Record(ctx context.Context, e entity.AuditEntry) error {
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return errors.New("audit log requiere action/entity/entity_id")
	}
	meta, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("serializar auditoría: %w", err)
	}
	var actorID *string
	if e.ActorID != "" {
		actorID = &e.ActorID
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		actorID, e.Action, e.Entity, e.EntityID, meta, nullTime(e.At),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
