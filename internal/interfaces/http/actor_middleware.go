package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Clinica-api/internal/application/dto"
	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
)

// RequireActiveActor verifica que el usuario del token exista en el directorio y no
// esté suspendido. Debe usarse DESPUÉS de AuthMiddleware (necesita LocalUserID).
//
//   - 401 Unauthorized: el usuario del token no existe en el directorio.
//   - 403 Forbidden: actor suspendido.
//   - 503 Service Unavailable: fallo al consultar el directorio.
func RequireActiveActor(actors repository.ActorRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}

		actor, err := actors.GetByID(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:      "ACTOR_CHECK_FAILED",
				Message:   "no se pudo verificar el usuario, intente más tarde",
				Retryable: true,
			})
		}
		if actor == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "ACTOR_UNKNOWN",
				Message: "el usuario del token no existe en el directorio",
			})
		}
		if actor.Status == entity.ActorSuspended {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "ACTOR_INACTIVE",
				Message: "el usuario no está habilitado para registrar movimientos",
			})
		}
		return c.Next()
	}
}
