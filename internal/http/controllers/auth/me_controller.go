package auth

import (
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"

	svc "github.com/crowdspark/crowdspark-api/internal/auth"
	dto "github.com/crowdspark/crowdspark-api/internal/http/dto/auth"
	httperrors "github.com/crowdspark/crowdspark-api/internal/http/errors"
	"github.com/crowdspark/crowdspark-api/internal/http/helpers"
	"github.com/crowdspark/crowdspark-api/internal/http/middlewares"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
)

// MeController maneja GET /api/user/me.
type MeController struct {
	service *svc.Service
}

func NewMeController(service *svc.Service) *MeController {
	return &MeController{service: service}
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Me"))

	id, ok := middlewares.GetIdentity(ctx)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrAuthenticationRequired)
		return
	}
	userID, err := uuid.Parse(id.UserID)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidToken)
		return
	}

	u, err := c.service.GetUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		log.Error("me falló", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MeResponse{User: toUserResponse(u)})
}
