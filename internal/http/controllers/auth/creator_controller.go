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

// CreatorController maneja POST /api/user/become-creator.
type CreatorController struct {
	service *svc.Service
}

func NewCreatorController(service *svc.Service) *CreatorController {
	return &CreatorController{service: service}
}

// BecomeCreator promueve la cuenta y devuelve tokens nuevos: el claim
// is_creator del access vigente quedó viejo en el momento de promover.
func (c *CreatorController) BecomeCreator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("BecomeCreator"))

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

	u, pair, err := c.service.BecomeCreator(ctx, userID)
	if err != nil {
		if stderrors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		log.Error("become-creator falló", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	log.Info("cuenta promovida a creador", logger.UserID(u.ID.String()))

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.BecomeCreatorResponse{
		User:   toUserResponse(u),
		Tokens: toTokenPair(pair),
	})
}
