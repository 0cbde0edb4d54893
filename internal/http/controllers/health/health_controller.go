// Package health expone los endpoints de salud del servicio.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/crowdspark/crowdspark-api/internal/http/helpers"
)

// Pinger verifica la dependencia de almacenamiento.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja GET /healthz y GET /readyz.
type Controller struct {
	store Pinger
}

func NewController(store Pinger) *Controller {
	return &Controller{store: store}
}

// Healthz: el proceso está vivo. No toca dependencias.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz: el servicio puede atender tráfico. Verifica la base.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database",
			})
			return
		}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
