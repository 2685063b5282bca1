package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidTransition     = errors.New("transición de estado inválida")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrAlreadyFulfilled      = errors.New("el ticket de salida ya fue procesado")
	ErrFulfillmentInProgress = errors.New("el procesamiento del ticket está en curso")
	ErrUpstream              = errors.New("error del servicio remoto")
)
