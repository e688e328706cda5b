package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/application/inventory"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/pkg/logger"
	"github.com/jhoicas/Clinica-api/pkg/validator"
)

// InventoryHandler maneja las peticiones HTTP del libro de stock (protegido).
type InventoryHandler struct {
	uc     *inventory.RecordMovementUseCase
	query  *inventory.MovementQueryUseCase
	alerts *inventory.StockAlertUseCase
	status *inventory.StockStatusUseCase
	log    *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.RecordMovementUseCase,
	query *inventory.MovementQueryUseCase,
	alerts *inventory.StockAlertUseCase,
	status *inventory.StockStatusUseCase,
	log *logger.Logger,
) *InventoryHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &InventoryHandler{uc: uc, query: query, alerts: alerts, status: status, log: log.Named("http.inventory")}
}

// RecordReceipt godoc
// @Summary      Registrar entrada de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiptRequest  true  "product_id, quantity, supplier_id, unit_price opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return validationError(c, errs)
	}
	m, err := h.uc.RecordReceipt(c.UserContext(), GetUserID(c), in)
	return h.created(c, m, err)
}

// RecordConsumption godoc
// @Summary      Registrar salida por consumo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ConsumptionRequest  true  "product_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) RecordConsumption(c *fiber.Ctx) error {
	var in dto.ConsumptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return validationError(c, errs)
	}
	m, err := h.uc.RecordConsumption(c.UserContext(), GetUserID(c), in)
	return h.created(c, m, err)
}

// RecordCorrection godoc
// @Summary      Ajustar stock al conteo físico
// @Description  target_stock es el nivel absoluto resultante, no un delta.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CorrectionRequest  true  "product_id, target_stock, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/corrections [post]
func (h *InventoryHandler) RecordCorrection(c *fiber.Ctx) error {
	var in dto.CorrectionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return validationError(c, errs)
	}
	m, err := h.uc.RecordCorrection(c.UserContext(), GetUserID(c), in)
	return h.created(c, m, err)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento con tipo explícito
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterMovementRequest  true  "product_id, type (ENTRY|EXIT|ADJUSTMENT), quantity, supplier_id (solo ENTRY)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return validationError(c, errs)
	}
	m, err := h.uc.RecordMovementFromRequest(c.UserContext(), GetUserID(c), in)
	return h.created(c, m, err)
}

func (h *InventoryHandler) created(c *fiber.Ctx, m *entity.Movement, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(m))
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Description  Requiere al menos un filtro; los filtros indicados se combinan. from/to aceptan RFC3339 o YYYY-MM-DD (inclusivos).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query     string  false  "UUID del producto"
// @Param        type        query     string  false  "ENTRY | EXIT | ADJUSTMENT"
// @Param        from        query     string  false  "Fecha inicial"
// @Param        to          query     string  false  "Fecha final"
// @Success      200         {object}  dto.MovementListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      422         {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("product_id"))
	movementType := strings.TrimSpace(c.Query("type"))
	from, to, hasRange, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return badRequest(c, "INVALID_DATE", err.Error())
	}

	ctx := c.UserContext()
	var list []*entity.Movement
	switch {
	case movementType != "" && (productID != "" || hasRange):
		criteria := inventory.MovementCriteria{ProductID: productID, Type: movementType}
		if hasRange {
			criteria.From, criteria.To = &from, &to
		}
		list, err = h.query.Search(ctx, criteria)
	case productID != "" && hasRange:
		list, err = h.query.ByProductAndDateRange(ctx, productID, from, to)
	case productID != "":
		list, err = h.query.ByProduct(ctx, productID)
	case movementType != "":
		list, err = h.query.ByType(ctx, movementType)
	case hasRange:
		list, err = h.query.ByDateRange(ctx, from, to)
	default:
		return badRequest(c, "MISSING_FILTER", "indique product_id, type o el rango from/to")
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToMovementListResponse(list))
}

// ProductMovements godoc
// @Summary      Historial de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "UUID del producto"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) ProductMovements(c *fiber.Ctx) error {
	list, err := h.query.ByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToMovementListResponse(list))
}

// GetMovement godoc
// @Summary      Detalle de un movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "UUID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	m, err := h.query.ByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToMovementResponse(m))
}

// ProductStock godoc
// @Summary      Stock actual de un producto conciliado con su último movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "UUID del producto"
// @Success      200  {object}  dto.StockStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) ProductStock(c *fiber.Ctx) error {
	st, err := h.status.Check(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !st.Consistent {
		h.log.Warn().Str("product_id", st.ProductID).
			Str("stock_current", st.StockCurrent.String()).
			Msg("stock no coincide con el último movimiento")
	}
	return c.JSON(st)
}

// StockAlerts godoc
// @Summary      Productos fuera de sus umbrales de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockAlertDTO
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) StockAlerts(c *fiber.Ctx) error {
	list, err := h.alerts.ListAlerts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":  len(list),
		"alerts": list,
	})
}

// parseRange exige from y to juntos. Una fecha sin hora en to cubre el día completo.
func parseRange(fromStr, toStr string) (from, to time.Time, ok bool, err error) {
	fromStr, toStr = strings.TrimSpace(fromStr), strings.TrimSpace(toStr)
	if fromStr == "" && toStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, false, errRangeIncomplete
	}
	from, _, err = parseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	to, dateOnly, err := parseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if dateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, true, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, errInvalidDate
	}
	return t, true, nil
}
