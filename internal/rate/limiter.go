// Package rate implementa rate limiting de ventana fija.
package rate

import (
	"context"
	"time"
)

// Result es el veredicto de un intento.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter decide si el intento identificado por key pasa.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
