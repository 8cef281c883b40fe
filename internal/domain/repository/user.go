package repository

import "context"

// UserRepository es el almacén de credenciales locales. El hashing de
// contraseñas no es responsabilidad de este contrato: solo Verify y Exists.
type UserRepository interface {
	// Verify devuelve true si username/password son válidos.
	Verify(ctx context.Context, username, password string) bool

	// Exists reporta si existe un usuario local con ese nombre.
	Exists(ctx context.Context, username string) bool
}
