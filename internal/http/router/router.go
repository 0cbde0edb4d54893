// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/auth"
	healthctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/health"
	socialctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/social"
	httperrors "github.com/crowdspark/crowdspark-api/internal/http/errors"
	mw "github.com/crowdspark/crowdspark-api/internal/http/middlewares"
	"github.com/crowdspark/crowdspark-api/internal/rate"
	"github.com/crowdspark/crowdspark-api/internal/token"
)

// Deps agrupa todo lo que necesita el router.
type Deps struct {
	Auth   *authctrl.Controllers
	Social *socialctrl.GoogleController // nil si OAuth no está configurado
	Health *healthctrl.Controller

	Codec     *token.Codec
	Refresher mw.Refresher

	// AuthLimiter limita los endpoints de autenticación por IP. Opcional.
	AuthLimiter rate.Limiter

	// CORSAllowedOrigins para el frontend.
	CORSAllowedOrigins []string

	// MetricsHandler sirve /metrics. Opcional.
	MetricsHandler http.Handler
	// MetricsMiddleware instrumenta los requests. Opcional.
	MetricsMiddleware mw.Middleware
}

// New construye el handler raíz con la cadena de middlewares base.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Las métricas van adentro del mux: el middleware necesita el
	// patrón de ruta resuelto por chi para etiquetar.
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}

	base := []mw.Middleware{
		mw.WithRequestID(),
		mw.WithRecover(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	}

	authLimit := mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: deps.AuthLimiter,
		KeyFunc: mw.IPOnlyRateKey,
	})

	requireAuth := mw.RequireAuth(deps.Codec, deps.Refresher)

	// Endpoints públicos de cuenta, con rate limit por IP.
	r.Method(http.MethodPost, "/api/user/register",
		mw.ChainFunc(deps.Auth.Register.Register, authLimit, mw.WithNoStore()))
	r.Method(http.MethodPost, "/api/user/login",
		mw.ChainFunc(deps.Auth.Login.Login, authLimit, mw.WithNoStore()))
	r.Method(http.MethodPost, "/api/user/refresh-token",
		mw.ChainFunc(deps.Auth.Refresh.Refresh, authLimit, mw.WithNoStore()))

	// Endpoints autenticados.
	r.Method(http.MethodGet, "/api/user/me",
		mw.ChainFunc(deps.Auth.Me.Me, requireAuth))
	r.Method(http.MethodPost, "/api/user/become-creator",
		mw.ChainFunc(deps.Auth.Creator.BecomeCreator, requireAuth, mw.WithNoStore()))

	// Flujo social. Solo si hay credenciales de Google configuradas.
	if deps.Social != nil {
		r.Method(http.MethodGet, "/auth/google",
			mw.ChainFunc(deps.Social.Start, authLimit))
		r.Method(http.MethodGet, "/auth/google/callback",
			mw.ChainFunc(deps.Social.Callback, authLimit, mw.WithNoStore()))
	}

	// Salud y métricas.
	r.Method(http.MethodGet, "/healthz", http.HandlerFunc(deps.Health.Healthz))
	r.Method(http.MethodGet, "/readyz", http.HandlerFunc(deps.Health.Readyz))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return mw.Chain(r, base...)
}
