// Package auth contiene los DTOs de los endpoints de cuenta.
package auth

// RegisterRequest es la solicitud de alta de cuenta.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName,omitempty"`
	IsCreator   bool   `json:"isCreator,omitempty"`
}

// LoginRequest es la solicitud de login con contraseña.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest es la solicitud de renovación de sesión.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair es el par de tokens que recibe el cliente.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse envuelve el par de tokens.
type AuthResponse struct {
	Tokens TokenPair `json:"tokens"`
}

// UserResponse es la vista pública de la cuenta.
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	IsCreator     bool   `json:"isCreator"`
	EmailVerified bool   `json:"emailVerified"`
	IsVerified    bool   `json:"isVerified"`
}

// MeResponse envuelve la cuenta autenticada.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// BecomeCreatorResponse devuelve la cuenta promovida y tokens nuevos
// con el claim de creador ya presente.
type BecomeCreatorResponse struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}
