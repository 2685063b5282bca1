package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
)

// Registry godoc
// @Summary      Estados y transiciones de un tipo de documento
// @Tags         registry
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "tipo de documento o ticket"
// @Success      200  {object}  dto.RegistryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/registry/{type} [get]
func Registry(c *fiber.Ctx) error {
	t, ok := documentType(c, nil)
	if !ok {
		return badRequest(c, "INVALID_TYPE", "tipo de documento desconocido")
	}
	return c.JSON(dto.NewRegistryResponse(t))
}
