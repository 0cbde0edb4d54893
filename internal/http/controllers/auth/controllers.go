// Package auth contiene los controllers de los endpoints de cuenta.
package auth

import (
	"strings"

	svc "github.com/crowdspark/crowdspark-api/internal/auth"
	"github.com/crowdspark/crowdspark-api/internal/domain"
	dto "github.com/crowdspark/crowdspark-api/internal/http/dto/auth"
)

// Controllers agrupa los controllers del dominio de cuentas.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Refresh  *RefreshController
	Me       *MeController
	Creator  *CreatorController
}

// NewControllers crea el agregador.
func NewControllers(s *svc.Service) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s),
		Login:    NewLoginController(s),
		Refresh:  NewRefreshController(s),
		Me:       NewMeController(s),
		Creator:  NewCreatorController(s),
	}
}

func toTokenPair(p *svc.TokenPair) dto.TokenPair {
	return dto.TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}

func toUserResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		AvatarURL:     u.AvatarURL,
		IsCreator:     u.IsCreator,
		EmailVerified: u.EmailVerified,
		IsVerified:    u.IsVerified,
	}
}

// isValidEmail: validación mínima, el mailbox real lo confirma el correo.
func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
