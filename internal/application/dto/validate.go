package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// nfc_token: token de estado no vacío tras normalizar (rechaza solo espacios).
		_ = validate.RegisterValidation("nfc_token", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(norm.NFC.String(fl.Field().String())) != ""
		})
	})
	return validate
}

// ValidationError errores por campo; errors.Is(err, domain.ErrInvalidInput) es verdadero.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+" "+msg)
	}
	return fmt.Sprintf("%s: %s", domain.ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrInvalidInput
}

// Validate aplica las etiquetas validate del struct.
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nfc_token":
		return "es requerido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "max":
		return "debe tener como máximo " + fe.Param()
	}
	return "inválido (" + fe.Tag() + ")"
}
