package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: ventana fija en memoria. El reset es perezoso: la
// entrada vencida se reinicia recién cuando vuelve a llegar tráfico
// con esa key. Sirve para un solo nodo; con réplicas usar RedisLimiter.
type MemoryLimiter struct {
	max    int64
	window time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time // inyectable en tests

	// sweepEvery: cada tantos Allow se barren las entradas vencidas
	// para que las keys de un solo intento no crezcan sin límite.
	sweepEvery int
	sinceSweep int
}

type entry struct {
	count   int64
	resetAt time.Time
}

// NewMemoryLimiter crea el limiter con max intentos por ventana.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:        int64(max),
		window:     window,
		entries:    make(map[string]*entry),
		now:        time.Now,
		sweepEvery: 1024,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.sinceSweep++
	if l.sinceSweep >= l.sweepEvery {
		l.sinceSweep = 0
		for k, e := range l.entries {
			if now.After(e.resetAt) {
				delete(l.entries, k)
			}
		}
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{resetAt: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++

	allowed := e.count <= l.max
	remaining := l.max - e.count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: e.count,
		WindowTTL:   e.resetAt.Sub(now),
	}
	if !allowed {
		res.RetryAfter = e.resetAt.Sub(now)
	}
	return res, nil
}
