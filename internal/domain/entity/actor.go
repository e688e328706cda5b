package entity

import "time"

// Roles del personal de la clínica que interactúan con el inventario.
const (
	RoleAdmin      = "admin"
	RoleInventory  = "inventario"
	RoleAssistant  = "asistente"
	ActorActive    = "active"
	ActorSuspended = "suspended"
)

// Actor representa a la persona que ejecuta un movimiento (usuario del sistema).
// Se resuelve por ID; la gestión de usuarios y roles vive fuera del libro de stock.
type Actor struct {
	ID        string
	Name      string
	Email     string
	Role      string // admin, inventario, asistente
	Status    string // active, suspended
	CreatedAt time.Time
}
