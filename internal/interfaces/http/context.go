package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/scmapi"
)

// requestContext contexto para los casos de uso: sin la cancelación de la petición (una cascada
// empezada termina aunque el cliente se desconecte) y con el token del usuario para la API remota.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := context.WithoutCancel(c.UserContext())
	if tok := GetToken(c); tok != "" {
		ctx = scmapi.WithToken(ctx, tok)
	}
	return ctx
}

// documentType lee el parámetro :type y verifica que cumpla accept.
func documentType(c *fiber.Ctx, accept func(status.DocumentType) bool) (status.DocumentType, bool) {
	t, ok := status.ParseDocumentType(c.Params("type"))
	if !ok || (accept != nil && !accept(t)) {
		return "", false
	}
	return t, true
}
