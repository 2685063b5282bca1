package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/scmapi"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Gana el primer error que coincida.
var errorMappings = []errorMapping{
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrAlreadyFulfilled, fiber.StatusConflict, "ALREADY_FULFILLED"},
	{domain.ErrFulfillmentInProgress, fiber.StatusConflict, "IN_PROGRESS"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUpstream, fiber.StatusBadGateway, "UPSTREAM"},
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "TIMEOUT"},
}

// writeError traduce errores de dominio a dto.ErrorResponse con su código HTTP.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	code := fiber.StatusInternalServerError
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			code, resp.Code = m.status, m.code
			break
		}
	}
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	var apiErr *scmapi.APIError
	if errors.As(err, &apiErr) {
		log.Warn().Int("upstream_status", apiErr.Status).Str("path", apiErr.Path).Msg("error de la API SCM")
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.Route().Path).Msg("petición fallida")
	}
	return c.Status(code).JSON(resp)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
