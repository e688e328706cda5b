package entity

import "time"

// Acciones de auditoría emitidas por el libro de stock.
const (
	AuditActionCreated  = "created"
	AuditEntityMovement = "movement"
)

// AuditEntry representa una notificación de auditoría (created:<Movement>).
type AuditEntry struct {
	Action   string
	Entity   string
	EntityID string
	ActorID  string
	Payload  map[string]any
	At       time.Time
}
