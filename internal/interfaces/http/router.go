package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/pkg/logger"
)

var (
	errRangeIncomplete = errors.New("from y to deben enviarse juntos")
	errInvalidDate     = errors.New("fecha inválida: use RFC3339 o YYYY-MM-DD")
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RecordMovement *inventory.RecordMovementUseCase
	Query          *inventory.MovementQueryUseCase
	Alerts         *inventory.StockAlertUseCase
	Status         *inventory.StockStatusUseCase
	Actors         repository.ActorRepository
	JWTSecret      string
	JWTIssuer      string
	Logger         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.RecordMovement, deps.Query, deps.Alerts, deps.Status, deps.Logger)

	// Escrituras: solo admin e inventario, con actor vigente en el directorio
	writers := []fiber.Handler{
		RequireRole(entity.RoleAdmin, entity.RoleInventory),
		RequireActiveActor(deps.Actors),
	}
	inv.Post("/receipts", append(writers, h.RecordReceipt)...)
	inv.Post("/consumptions", append(writers, h.RecordConsumption)...)
	inv.Post("/corrections", append(writers, h.RecordCorrection)...)
	inv.Post("/movements", append(writers, h.RegisterMovement)...)

	// Lecturas: cualquier rol autenticado
	inv.Get("/movements", h.ListMovements)
	inv.Get("/movements/:id", h.GetMovement)
	inv.Get("/products/:id/movements", h.ProductMovements)
	inv.Get("/products/:id/stock", h.ProductStock)
	inv.Get("/alerts", h.StockAlerts)
}
