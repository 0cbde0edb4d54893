// Package app cablea las dependencias del servicio y maneja su ciclo de vida.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crowdspark/crowdspark-api/internal/auth"
	"github.com/crowdspark/crowdspark-api/internal/cache"
	memorycache "github.com/crowdspark/crowdspark-api/internal/cache/memory"
	rediscache "github.com/crowdspark/crowdspark-api/internal/cache/redis"
	"github.com/crowdspark/crowdspark-api/internal/config"
	"github.com/crowdspark/crowdspark-api/internal/email"
	authctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/auth"
	healthctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/health"
	socialctrl "github.com/crowdspark/crowdspark-api/internal/http/controllers/social"
	"github.com/crowdspark/crowdspark-api/internal/http/router"
	"github.com/crowdspark/crowdspark-api/internal/metrics"
	"github.com/crowdspark/crowdspark-api/internal/oauth/google"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
	"github.com/crowdspark/crowdspark-api/internal/rate"
	"github.com/crowdspark/crowdspark-api/internal/store/postgres"
	"github.com/crowdspark/crowdspark-api/internal/token"
)

// App es el servicio armado y listo para servir.
type App struct {
	cfg    *config.Config
	server *http.Server
	store  *postgres.Store
	redis  *rediscache.Cache // nil si el cache es memory
}

// refresherAdapter adapta el servicio de auth a la interfaz del middleware.
type refresherAdapter struct {
	svc *auth.Service
}

func (a refresherAdapter) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	_, pair, err := a.svc.Refresh(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	return pair.AccessToken, pair.RefreshToken, nil
}

// New construye el servicio completo a partir de la configuración.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("app")

	// Almacenamiento
	store, err := postgres.New(ctx, cfg.Storage.DSN, postgres.Options{
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	// Tokens
	codec, err := token.New(
		cfg.JWT.Issuer, cfg.JWT.Audience,
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		token.WithTTLs(cfg.AccessTTL(), cfg.RefreshTTL()),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	// Cache y rate limiter. Con redis ambos comparten la conexión.
	var (
		stateCache  cache.Cache
		authLimiter rate.Limiter
		redisCache  *rediscache.Cache
	)
	switch cfg.Cache.Kind {
	case "redis":
		redisCache, err = rediscache.New(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		if err != nil {
			store.Close()
			return nil, err
		}
		stateCache = redisCache
		if cfg.Rate.Enabled {
			authLimiter = rate.NewRedisLimiter(redisCache.Client(), "rl:auth", int(cfg.Rate.Auth.Limit), cfg.RateWindow())
		}
	default:
		stateCache = memorycache.New(cfg.MemoryDefaultTTL())
		if cfg.Rate.Enabled {
			authLimiter = rate.NewMemoryLimiter(int(cfg.Rate.Auth.Limit), cfg.RateWindow())
		}
	}

	// Correo de bienvenida, solo si hay SMTP.
	var welcome auth.WelcomeMailer
	if cfg.SMTP.Host != "" && cfg.SMTP.From != "" {
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.User, cfg.SMTP.Pass)
		welcome = email.NewWelcomeMailer(sender)
	} else {
		log.Info("SMTP sin configurar, no se envía correo de bienvenida")
	}

	users := store.Users()
	svc := auth.NewService(auth.Deps{Users: users, Codec: codec, Welcome: welcome})
	resolver := auth.NewResolver(users)

	// Proveedor social. El servicio arranca sin él si faltan credenciales.
	var social *socialctrl.GoogleController
	if cfg.OAuthEnabled() {
		provider := google.New(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURL,
			nil,
		)
		social = socialctrl.NewGoogleController(provider, resolver, svc, stateCache, cfg.Frontend.BaseURL)
	} else {
		log.Info("OAuth de Google sin configurar, /auth/google deshabilitado")
	}

	// Métricas
	httpMetrics, err := metrics.NewHTTP()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app: métricas: %w", err)
	}

	handler := router.New(router.Deps{
		Auth:               authctrl.NewControllers(svc),
		Social:             social,
		Health:             healthctrl.NewController(store),
		Codec:              codec,
		Refresher:          refresherAdapter{svc: svc},
		AuthLimiter:        authLimiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsHandler:     httpMetrics.Handler(),
		MetricsMiddleware:  httpMetrics.Middleware(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{cfg: cfg, server: srv, store: store, redis: redisCache}, nil
}

// Migrate aplica las migraciones pendientes.
func (a *App) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// Run sirve hasta que el contexto se cancele y después apaga con gracia.
func (a *App) Run(ctx context.Context) error {
	log := logger.Named("app")

	errCh := make(chan error, 1)
	go func() {
		log.Info("servidor escuchando", logger.String("addr", a.cfg.Server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	log.Info("apagando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *App) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.store.Close()
}
