// Package cache provee el cache de estado efímero del servicio.
// Hoy lo usa el flujo OAuth para guardar state y nonce entre el
// redirect y el callback.
//
// Backends:
//   - memory (in-process, desarrollo y single-node)
//   - redis (para correr más de una réplica)
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound: la key no existe o ya expiró.
var ErrNotFound = errors.New("cache: key no encontrada")

// Cache define las operaciones que necesita el servicio.
type Cache interface {
	// Get devuelve el valor o ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda el valor con TTL. ttl 0 usa el default del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina la key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error
}
