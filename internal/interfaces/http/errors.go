package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/domain"
	"github.com/jhoicas/Clinica-api/pkg/logger"
	"github.com/jhoicas/Clinica-api/pkg/validator"
)

// writeError traduce los errores del libro a respuestas HTTP.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		ise *domain.InsufficientStockError
		nf  *domain.NotFoundError
		br  *domain.BusinessRuleError
		pe  *domain.PersistenceError
	)
	switch {
	case errors.As(err, &ise):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: "stock insuficiente",
			Details: dto.InsufficientStockDetails{
				ProductID: ise.ProductID,
				Available: ise.Available.String(),
				Requested: ise.Requested.String(),
			},
		})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: nf.Error()})
	case errors.As(err, &br):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "BUSINESS_RULE", Message: br.Rule})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.As(err, &pe):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:      "TRANSIENT",
			Message:   "el movimiento no se registró; puede reintentar",
			Retryable: pe.Retryable(),
		})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func validationError(c *fiber.Ctx, fields []*validator.FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: fields})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
