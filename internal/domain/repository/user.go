// Package repository define los puertos de persistencia del dominio.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/crowdspark/crowdspark-api/internal/domain"
)

var (
	// ErrNotFound: la fila no existe. Distinto de una falla del almacén.
	ErrNotFound = errors.New("repository: no encontrado")
	// ErrDuplicateEmail: violación del índice único de email.
	ErrDuplicateEmail = errors.New("repository: email duplicado")
	// ErrDuplicateGoogleID: violación del índice único de google_id.
	ErrDuplicateGoogleID = errors.New("repository: google_id duplicado")
)

// Users es el puerto de persistencia de cuentas.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// Create inserta la cuenta y completa ID/CreatedAt/UpdatedAt.
	Create(ctx context.Context, u *domain.User) error

	// LinkGoogle vincula la cuenta existente con la identidad de Google
	// y refresca los datos de perfil que vienen del proveedor.
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID, displayName, avatarURL string) error

	// TouchProviderProfile actualiza nombre y avatar con lo último
	// que reportó el proveedor.
	TouchProviderProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error

	// SaveLoginArtifacts espeja el refresh token vigente y marca last_login.
	SaveLoginArtifacts(ctx context.Context, id uuid.UUID, refreshToken string) error

	// SetCreator promueve la cuenta a creador.
	SetCreator(ctx context.Context, id uuid.UUID) error
}
