package scmapi

import (
	"fmt"
	"unicode/utf8"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
)

// APIError respuesta ≥400 de la API remota que no tiene un error de dominio propio.
// errors.Is(err, domain.ErrUpstream) es verdadero.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := truncate(e.Body, maxErrorBody)
	return fmt.Sprintf("%s: %s %s respondió %d: %s", domain.ErrUpstream, e.Method, e.Path, e.Status, body)
}

func (e *APIError) Is(target error) bool {
	return target == domain.ErrUpstream
}

// mapStatus traduce el código HTTP a error de dominio. nil para 2xx/3xx.
func mapStatus(method, path string, code int, body []byte) error {
	switch {
	case code < 400:
		return nil
	case code == 404:
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	case code == 401:
		return fmt.Errorf("%w: %s %s", domain.ErrUnauthorized, method, path)
	case code == 403:
		return fmt.Errorf("%w: %s %s", domain.ErrForbidden, method, path)
	case code == 409:
		return fmt.Errorf("%w: %s %s: %s", domain.ErrConflict, method, path, body)
	}
	return &APIError{Method: method, Path: path, Status: code, Body: string(body)}
}

const maxErrorBody = 256

// truncate corta s a lo sumo en max bytes sin partir un carácter UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
