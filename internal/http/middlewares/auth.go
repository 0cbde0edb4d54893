package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/crowdspark/crowdspark-api/internal/http/errors"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
	"github.com/crowdspark/crowdspark-api/internal/token"
)

// maxRefreshPeek: bytes del body que se leen buscando refreshToken.
const maxRefreshPeek = 8192

// Refresher renueva una sesión a partir de un refresh token. Lo implementa
// el servicio de auth; la interfaz local evita el import circular.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// bearerToken extrae el token del header Authorization.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// refreshTokenFrom busca el refresh token del request: primero el header
// x-refresh-token, después el campo refreshToken del body JSON.
func refreshTokenFrom(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Refresh-Token")); v != "" {
		return v
	}
	return extractJSONField(r, "refreshToken", maxRefreshPeek)
}

func identityFrom(claims *token.AccessClaims) Identity {
	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		IsCreator: claims.IsCreator,
	}
}

// RequireAuth exige un access token válido. Si el access vino vencido
// pero el request trae un refresh token utilizable, renueva la sesión
// en el mismo request y devuelve el par nuevo en los headers
// X-New-Access-Token y X-New-Refresh-Token.
func RequireAuth(codec *token.Codec, refresher Refresher) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				errors.WriteError(w, errors.ErrMissingToken)
				return
			}

			claims, err := codec.VerifyAccess(raw)
			if err == nil {
				ctx := WithIdentity(r.Context(), identityFrom(claims))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Solo un access VENCIDO habilita el fallback de renovación.
			// Uno malformado o con firma ajena se rechaza directo.
			if !stderrors.Is(err, token.ErrTokenExpired) {
				errors.WriteError(w, errors.ErrInvalidToken)
				return
			}

			refreshTok := refreshTokenFrom(r)
			if refreshTok == "" || refresher == nil {
				errors.WriteError(w, errors.ErrInvalidToken)
				return
			}

			newAccess, newRefresh, err := refresher.RefreshTokens(r.Context(), refreshTok)
			if err != nil {
				errors.WriteError(w, errors.ErrRefreshFailed)
				return
			}

			newClaims, err := codec.VerifyAccess(newAccess)
			if err != nil {
				// Un access recién emitido que no verifica es un bug nuestro.
				logger.From(r.Context()).Error("access renovado no verifica", logger.Err(err))
				errors.WriteError(w, errors.ErrRefreshFailed)
				return
			}

			w.Header().Set("X-New-Access-Token", newAccess)
			w.Header().Set("X-New-Refresh-Token", newRefresh)

			ctx := WithIdentity(r.Context(), identityFrom(newClaims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth adjunta la identidad si hay un access token válido y
// sigue como anónimo ante cualquier falla. Nunca corta el request.
func OptionalAuth(codec *token.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if claims, err := codec.VerifyAccess(raw); err == nil {
					ctx := WithIdentity(r.Context(), identityFrom(claims))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCreator exige que la sesión ya autenticada sea de un creador.
// Va después de RequireAuth en la cadena; sin sesión responde 401.
func RequireCreator() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				errors.WriteError(w, errors.ErrAuthenticationRequired)
				return
			}
			if !id.IsCreator {
				errors.WriteError(w, errors.ErrCreatorRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
