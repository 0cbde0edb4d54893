package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crowdspark/crowdspark-api/internal/domain"
	"github.com/crowdspark/crowdspark-api/internal/domain/repository"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
)

// ErrMissingEmail: el proveedor no entregó email. Sin email no hay
// forma de vincular ni de crear la cuenta.
var ErrMissingEmail = errors.New("auth: el proveedor no entregó email")

// Profile es la identidad verificada que entrega el proveedor OAuth.
type Profile struct {
	ProviderID    string
	Email         string
	GivenName     string
	FamilyName    string
	DisplayName   string
	AvatarURL     string
	EmailVerified bool
}

// Resultados posibles de la resolución.
const (
	OutcomeMatchedByProvider = "matched-by-provider"
	OutcomeLinkedByEmail     = "linked-by-email"
	OutcomeCreated           = "created"
)

// Resolver decide a qué cuenta local corresponde una identidad externa.
type Resolver struct {
	users repository.Users
}

// NewResolver construye el resolver.
func NewResolver(users repository.Users) *Resolver {
	return &Resolver{users: users}
}

// Resolve aplica la resolución en orden estricto:
//  1. cuenta ya vinculada al provider ID
//  2. cuenta local con el mismo email, que se vincula
//  3. cuenta nueva
//
// Devuelve la cuenta y el resultado alcanzado.
func (r *Resolver) Resolve(ctx context.Context, p Profile) (*domain.User, string, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, "", ErrMissingEmail
	}
	email := normalizeEmail(p.Email)
	log := logger.From(ctx).Named("resolver")

	// 1. ¿Ya está vinculada?
	u, err := r.users.GetByGoogleID(ctx, p.ProviderID)
	switch {
	case err == nil:
		// Refrescamos perfil con lo último del proveedor; si falla no
		// bloquea el login.
		if err := r.users.TouchProviderProfile(ctx, u.ID, p.DisplayName, p.AvatarURL); err != nil {
			log.Warn("no se pudo refrescar el perfil", logger.UserID(u.ID.String()), logger.Err(err))
		}
		log.Info("identidad resuelta", logger.Outcome(OutcomeMatchedByProvider), logger.UserID(u.ID.String()))
		return u, OutcomeMatchedByProvider, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("auth: resolver por provider: %w", err)
	}

	// 2. ¿Hay cuenta local con ese email? Se vincula conservando su contraseña.
	u, err = r.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := r.users.LinkGoogle(ctx, u.ID, p.ProviderID, p.DisplayName, p.AvatarURL); err != nil {
			return nil, "", fmt.Errorf("auth: vincular cuenta: %w", err)
		}
		u, err = r.users.GetByID(ctx, u.ID)
		if err != nil {
			return nil, "", fmt.Errorf("auth: releer cuenta vinculada: %w", err)
		}
		log.Info("identidad resuelta", logger.Outcome(OutcomeLinkedByEmail), logger.UserID(u.ID.String()))
		return u, OutcomeLinkedByEmail, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("auth: resolver por email: %w", err)
	}

	// 3. Cuenta nueva. Sin contraseña; el email lo verificó el proveedor.
	displayName := strings.TrimSpace(p.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(p.GivenName + " " + p.FamilyName)
	}
	providerID := p.ProviderID
	u = &domain.User{
		Email:         email,
		GoogleID:      &providerID,
		DisplayName:   displayName,
		FirstName:     strings.TrimSpace(p.GivenName),
		LastName:      strings.TrimSpace(p.FamilyName),
		AvatarURL:     p.AvatarURL,
		EmailVerified: true,
	}
	if err := r.users.Create(ctx, u); err != nil {
		return nil, "", fmt.Errorf("auth: crear cuenta social: %w", err)
	}
	log.Info("identidad resuelta", logger.Outcome(OutcomeCreated), logger.UserID(u.ID.String()))
	return u, OutcomeCreated, nil
}
