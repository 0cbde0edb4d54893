package auth

import (
	stderrors "errors"
	"net/http"
	"strings"

	svc "github.com/crowdspark/crowdspark-api/internal/auth"
	dto "github.com/crowdspark/crowdspark-api/internal/http/dto/auth"
	httperrors "github.com/crowdspark/crowdspark-api/internal/http/errors"
	"github.com/crowdspark/crowdspark-api/internal/http/helpers"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
)

// RefreshController maneja POST /api/user/refresh-token.
type RefreshController struct {
	service *svc.Service
}

func NewRefreshController(service *svc.Service) *RefreshController {
	return &RefreshController{service: service}
}

func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("refreshToken es requerido"))
		return
	}

	u, pair, err := c.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		// Token inválido y usuario inexistente responden igual: un refresh
		// que no sirve no merece más información.
		if stderrors.Is(err, svc.ErrInvalidRefreshToken) || stderrors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrInvalidRefreshToken)
			return
		}
		log.Error("refresh falló", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	log.Debug("sesión renovada", logger.UserID(u.ID.String()))

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.AuthResponse{Tokens: toTokenPair(pair)})
}
