// Package domain contiene las entidades del negocio, sin dependencias
// de transporte ni de almacenamiento.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User es la cuenta de la plataforma. Los punteros marcan columnas nullable:
// una cuenta creada vía Google no tiene hash de contraseña, y una cuenta
// local no tiene GoogleID hasta que se vincula.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash *string
	GoogleID     *string

	DisplayName string
	FirstName   string
	LastName    string
	AvatarURL   string

	IsCreator     bool
	EmailVerified bool
	IsVerified    bool

	// RefreshToken es el espejo del último refresh emitido. Informativo:
	// la validez del token la decide la firma, no esta columna.
	RefreshToken *string
	LastLogin    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword indica si la cuenta admite login con contraseña.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
