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

// LoginController maneja POST /api/user/login.
type LoginController struct {
	service *svc.Service
}

func NewLoginController(service *svc.Service) *LoginController {
	return &LoginController{service: service}
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("email y password son requeridos"))
		return
	}

	u, pair, err := c.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if stderrors.Is(err, svc.ErrInvalidCredentials) {
			// Mensaje único para email inexistente y contraseña incorrecta.
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
			return
		}
		log.Error("login falló", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	log.Info("login ok", logger.UserID(u.ID.String()))

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.AuthResponse{Tokens: toTokenPair(pair)})
}
