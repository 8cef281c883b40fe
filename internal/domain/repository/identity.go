package repository

import (
	"context"
	"time"
)

// ExternalBinding asocia una identidad de un IdP externo con un subject local.
type ExternalBinding struct {
	Provider        string
	ExternalSubject string
	LocalSubject    string
	CreatedAt       time.Time
}

// BindingRepository persiste los bindings externos.
// Un binding no se modifica nunca una vez creado: el primero gana.
type BindingRepository interface {
	// Get devuelve ErrNotFound si no hay binding para (provider, externalSubject).
	Get(ctx context.Context, provider, externalSubject string) (*ExternalBinding, error)

	// PutIfAbsent crea el binding si no existe y devuelve el que quedó almacenado
	// (el nuevo o el preexistente). created indica si esta llamada lo creó.
	PutIfAbsent(ctx context.Context, b ExternalBinding) (stored *ExternalBinding, created bool, err error)

	// SubjectTaken reporta si algún binding ya usa localSubject.
	SubjectTaken(ctx context.Context, localSubject string) (bool, error)

	Close() error
}
