// Package social contiene los controllers del flujo OAuth con Google.
package social

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"time"

	svc "github.com/crowdspark/crowdspark-api/internal/auth"
	"github.com/crowdspark/crowdspark-api/internal/cache"
	httperrors "github.com/crowdspark/crowdspark-api/internal/http/errors"
	"github.com/crowdspark/crowdspark-api/internal/oauth/google"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
)

// stateTTL: ventana entre el redirect a Google y el callback.
const stateTTL = 10 * time.Minute

const stateKeyPrefix = "oauth:google:state:"

// flujos que el frontend puede iniciar; cambian la UX del callback, no
// la resolución de identidad.
const (
	flowLogin    = "login"
	flowRegister = "register"
)

// oauthState es lo que se guarda server-side entre redirect y callback.
type oauthState struct {
	Nonce string `json:"nonce"`
	Flow  string `json:"flow"`
}

// GoogleController maneja GET /auth/google y GET /auth/google/callback.
type GoogleController struct {
	provider    *google.Client
	resolver    *svc.Resolver
	service     *svc.Service
	cache       cache.Cache
	frontendURL string
}

func NewGoogleController(provider *google.Client, resolver *svc.Resolver, service *svc.Service, c cache.Cache, frontendURL string) *GoogleController {
	return &GoogleController{
		provider:    provider,
		resolver:    resolver,
		service:     service,
		cache:       c,
		frontendURL: frontendURL,
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Start redirige al consentimiento de Google. ?state=register marca el
// flujo de alta; cualquier otro valor se trata como login.
func (c *GoogleController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleStart"))

	flow := flowLogin
	if r.URL.Query().Get("state") == flowRegister {
		flow = flowRegister
	}

	state := randomHex(16)
	nonce := randomHex(16)

	payload, _ := json.Marshal(oauthState{Nonce: nonce, Flow: flow})
	if err := c.cache.Set(ctx, stateKeyPrefix+state, payload, stateTTL); err != nil {
		log.Error("no se pudo guardar el state", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	authURL, err := c.provider.AuthURL(ctx, state, nonce)
	if err != nil {
		log.Error("no se pudo armar la URL de autorización", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback procesa el retorno de Google y redirige al frontend con los
// tokens o con un código de error en la query.
func (c *GoogleController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleCallback"), logger.Provider("google"))

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		// El usuario canceló el consentimiento o Google rechazó.
		log.Warn("google devolvió error", logger.String("error", errCode))
		c.redirectError(w, r, flowLogin, "oauth_denied")
		return
	}

	state := q.Get("state")
	code := q.Get("code")
	if state == "" || code == "" {
		c.redirectError(w, r, flowLogin, "oauth_invalid_request")
		return
	}

	// El state es de un solo uso.
	raw, err := c.cache.Get(ctx, stateKeyPrefix+state)
	if err != nil {
		log.Warn("state desconocido o vencido")
		c.redirectError(w, r, flowLogin, "oauth_state_mismatch")
		return
	}
	_ = c.cache.Delete(ctx, stateKeyPrefix+state)

	var st oauthState
	if err := json.Unmarshal(raw, &st); err != nil {
		c.redirectError(w, r, flowLogin, "oauth_state_mismatch")
		return
	}

	tokens, err := c.provider.ExchangeCode(ctx, code)
	if err != nil {
		log.Error("intercambio de código falló", logger.Err(err))
		c.redirectError(w, r, st.Flow, "oauth_exchange_failed")
		return
	}

	claims, err := c.provider.VerifyIDToken(ctx, tokens.IDToken, st.Nonce)
	if err != nil {
		log.Error("id_token no verifica", logger.Err(err))
		c.redirectError(w, r, st.Flow, "oauth_invalid_token")
		return
	}

	u, outcome, err := c.resolver.Resolve(ctx, svc.Profile{
		ProviderID:    claims.Sub,
		Email:         claims.Email,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		DisplayName:   claims.Name,
		AvatarURL:     claims.Picture,
		EmailVerified: claims.EmailVerified,
	})
	if err != nil {
		if stderrors.Is(err, svc.ErrMissingEmail) {
			c.redirectError(w, r, st.Flow, "oauth_missing_email")
			return
		}
		log.Error("resolución de identidad falló", logger.Err(err))
		c.redirectError(w, r, st.Flow, "oauth_internal")
		return
	}

	pair, err := c.service.TokensFor(ctx, u)
	if err != nil {
		log.Error("emisión de tokens falló", logger.Err(err))
		c.redirectError(w, r, st.Flow, "oauth_internal")
		return
	}

	log.Info("login social ok",
		logger.UserID(u.ID.String()),
		logger.Outcome(outcome))

	dest, _ := url.Parse(c.frontendURL)
	dest.Path = "/auth/callback"
	dq := dest.Query()
	dq.Set("access_token", pair.AccessToken)
	dq.Set("refresh_token", pair.RefreshToken)
	dq.Set("flow", st.Flow)
	if outcome == svc.OutcomeCreated {
		dq.Set("is_new", "true")
	}
	dest.RawQuery = dq.Encode()

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

func (c *GoogleController) redirectError(w http.ResponseWriter, r *http.Request, flow, code string) {
	dest, err := url.Parse(c.frontendURL)
	if err != nil || c.frontendURL == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(code))
		return
	}
	dest.Path = "/auth/callback"
	dq := dest.Query()
	dq.Set("error", code)
	dq.Set("flow", flow)
	dest.RawQuery = dq.Encode()

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, dest.String(), http.StatusFound)
}
