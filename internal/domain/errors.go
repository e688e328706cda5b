package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrBusinessRule      = errors.New("regla de negocio violada")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("fallo de persistencia")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrDuplicate         = errors.New("recurso duplicado")
)

// Reglas de negocio del libro de stock.
const (
	RuleSupplierRequired  = "supplier required for entry"
	RuleSupplierForbidden = "supplier only allowed for entry"
	RuleInvalidType       = "invalid movement type"
	RuleInvalidQuantity   = "invalid quantity"
	RuleQuantityPrecision = "quantity exceeds 4 decimal places"
	RuleStockOutOfRange   = "resulting stock out of range"
	RuleInvalidUnitPrice  = "invalid unit price"
	RuleInvalidDateRange  = "invalid date range"
)

// NotFoundError indica que una referencia (producto, actor, proveedor) no existe.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound construye un NotFoundError.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// BusinessRuleError error corregible por el llamador.
type BusinessRuleError struct {
	Rule string
}

func (e *BusinessRuleError) Error() string {
	return "regla de negocio: " + e.Rule
}

func (e *BusinessRuleError) Unwrap() error { return ErrBusinessRule }

// NewBusinessRule construye un BusinessRuleError.
func NewBusinessRule(rule string) error {
	return &BusinessRuleError{Rule: rule}
}

// InsufficientStockError lleva el disponible y lo solicitado para el mensaje al usuario.
type InsufficientStockError struct {
	ProductID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s",
		e.ProductID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError fallo de infraestructura; la operación completa se puede reintentar.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap expone tanto ErrPersistence como la causa original.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Retryable siempre es true: el commit es atómico, así que repetir la llamada es seguro.
func (e *PersistenceError) Retryable() bool { return true }

// IsDomainError indica si err pertenece a la taxonomía visible para el llamador
// (no es un fallo de infraestructura).
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBusinessRule) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthorized)
}
