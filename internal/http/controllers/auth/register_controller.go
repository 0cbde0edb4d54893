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

const minPasswordLen = 8

// RegisterController maneja POST /api/user/register.
type RegisterController struct {
	service *svc.Service
}

func NewRegisterController(service *svc.Service) *RegisterController {
	return &RegisterController{service: service}
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	var missing []string
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(
			"campos requeridos: "+strings.Join(missing, ", ")))
		return
	}
	if !isValidEmail(req.Email) {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("email inválido"))
		return
	}
	if len(req.Password) < minPasswordLen {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("la contraseña debe tener al menos 8 caracteres"))
		return
	}

	u, pair, err := c.service.Register(ctx, svc.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
		IsCreator:   req.IsCreator,
	})
	if err != nil {
		if stderrors.Is(err, svc.ErrEmailExists) {
			httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
			return
		}
		log.Error("register falló", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	log.Info("cuenta creada", logger.UserID(u.ID.String()))

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusCreated, dto.AuthResponse{Tokens: toTokenPair(pair)})
}
