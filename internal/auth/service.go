// Package auth implementa el registro, login y renovación de sesión.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crowdspark/crowdspark-api/internal/domain"
	"github.com/crowdspark/crowdspark-api/internal/domain/repository"
	"github.com/crowdspark/crowdspark-api/internal/observability/logger"
	"github.com/crowdspark/crowdspark-api/internal/token"
)

// bcryptCost: costo de hashing para contraseñas nuevas.
const bcryptCost = 12

var (
	// ErrEmailExists: ya hay una cuenta con ese email.
	ErrEmailExists = errors.New("auth: email ya registrado")
	// ErrInvalidCredentials cubre email inexistente, contraseña incorrecta
	// y cuentas sin contraseña. El caller no distingue cuál fue.
	ErrInvalidCredentials = errors.New("auth: credenciales inválidas")
	// ErrInvalidRefreshToken: el refresh no verifica.
	ErrInvalidRefreshToken = errors.New("auth: refresh token inválido")
	// ErrUserNotFound: el subject del refresh ya no existe.
	ErrUserNotFound = errors.New("auth: usuario no encontrado")
)

// WelcomeMailer envía el correo de bienvenida. Opcional.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, email, displayName string) error
}

// TokenPair es el par de tokens que recibe el cliente.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Deps son las dependencias del servicio.
type Deps struct {
	Users   repository.Users
	Codec   *token.Codec
	Welcome WelcomeMailer // nil si no hay SMTP configurado
}

// Service orquesta las operaciones de cuenta.
type Service struct {
	deps Deps
}

// NewService construye el servicio.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// RegisterInput son los datos de alta de cuenta. El controller ya validó
// presencia y formato; acá solo normalizamos.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
	IsCreator   bool
}

// Register crea la cuenta y la deja logueada.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error) {
	email := normalizeEmail(in.Email)

	// Pre-chequeo para responder rápido; el índice único es la garantía real.
	if _, err := s.deps.Users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("auth: register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: hashear contraseña: %w", err)
	}
	hashStr := string(hash)

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(in.FirstName + " " + in.LastName)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: &hashStr,
		DisplayName:  displayName,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsCreator:    in.IsCreator,
	}
	if err := s.deps.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, fmt.Errorf("auth: crear cuenta: %w", err)
	}

	pair, err := s.TokensFor(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	if s.deps.Welcome != nil {
		// El correo de bienvenida no bloquea ni falla el alta.
		go func(email, name string) {
			if err := s.deps.Welcome.SendWelcome(context.Background(), email, name); err != nil {
				logger.Named("auth").Warn("correo de bienvenida falló",
					logger.Email(email), logger.Err(err))
			}
		}(u.Email, u.DisplayName)
	}

	return u, pair, nil
}

// Login valida credenciales y emite tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	u, err := s.deps.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("auth: login: %w", err)
	}

	// Cuentas creadas solo vía Google no tienen contraseña.
	if !u.HasPassword() {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.TokensFor(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh renueva el par de tokens a partir de un refresh token vigente.
// Los claims del access nuevo se releen de la base: un usuario promovido
// a creador lo ve reflejado en la siguiente renovación.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	sub, err := s.deps.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("auth: refresh: %w", err)
	}

	pair, err := s.TokensFor(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// TokensFor emite el par de tokens para el usuario y espeja el refresh
// en su fila junto con last_login. Lo usa también el callback social.
func (s *Service) TokensFor(ctx context.Context, u *domain.User) (*TokenPair, error) {
	access, _, err := s.deps.Codec.MintAccess(u.ID.String(), u.Email, u.IsCreator)
	if err != nil {
		return nil, fmt.Errorf("auth: emitir access: %w", err)
	}
	refresh, err := s.deps.Codec.MintRefresh(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("auth: emitir refresh: %w", err)
	}

	if err := s.deps.Users.SaveLoginArtifacts(ctx, u.ID, refresh); err != nil {
		// El espejo es informativo; los tokens ya emitidos siguen siendo válidos.
		logger.From(ctx).Warn("no se pudo espejar el refresh token",
			logger.UserID(u.ID.String()), logger.Err(err))
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// GetUser busca la cuenta por ID. Lo usan /me y become-creator.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: get user: %w", err)
	}
	return u, nil
}

// BecomeCreator promueve la cuenta y devuelve tokens nuevos con el
// claim is_creator ya actualizado.
func (s *Service) BecomeCreator(ctx context.Context, id uuid.UUID) (*domain.User, *TokenPair, error) {
	if err := s.deps.Users.SetCreator(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("auth: become creator: %w", err)
	}
	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: become creator: %w", err)
	}
	pair, err := s.TokensFor(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
