package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrUserNotFound    = fmt.Errorf("usuario no encontrado: %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("producto no encontrado: %w", ErrNotFound)
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrHasDependents   = errors.New("el recurso tiene registros dependientes")
	ErrTransient       = errors.New("fallo transitorio de almacenamiento")
	// ErrCommitUnknown indica que el commit falló y no se sabe si se aplicó; no se reintenta.
	ErrCommitUnknown = fmt.Errorf("resultado de commit desconocido: %w", ErrTransient)
)

// ValidationError agrupa los errores por campo (nombre JSON -> mensaje).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación fallida: " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// DuplicateError identifica el campo único que colisionó.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("%s duplicado", e.Field) }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DependentsError se devuelve al borrar un registro referenciado por otros.
type DependentsError struct {
	Constraint string
	Count      int
}

func (e *DependentsError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("%d registros dependientes (%s)", e.Count, e.Constraint)
	}
	return fmt.Sprintf("registros dependientes (%s)", e.Constraint)
}

func (e *DependentsError) Is(target error) bool { return target == ErrHasDependents }
